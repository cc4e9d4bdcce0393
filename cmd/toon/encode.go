package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tokenform/toon"
)

var (
	flagNull           string
	flagEscape         string
	flagFieldOrder     []string
	flagSkipValidation bool
	flagUnixDates      bool
	flagIndent         string
)

var encodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Encode a JSON array of objects as TOON",
	Long: `Encode reads a JSON array of objects from a file or stdin, infers a
schema, and writes the TOON document.

Example:
  toon encode users.json
  cat users.json | toon encode --null literal --escape backslash`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVar(&flagNull, "null", "empty", "null handling: empty or literal")
	encodeCmd.Flags().StringVar(&flagEscape, "escape", "quotes", "escape strategy: quotes, backslash, or url")
	encodeCmd.Flags().StringSliceVar(&flagFieldOrder, "field-order", nil, "comma-separated field names to lead the header")
	encodeCmd.Flags().BoolVar(&flagSkipValidation, "skip-validation", false, "skip the pre-encode validation pass")
	encodeCmd.Flags().BoolVar(&flagUnixDates, "unix-dates", false, "write dates as Unix epoch seconds")
	encodeCmd.Flags().StringVar(&flagIndent, "indent", "", "row indentation (default two spaces)")
}

func runEncode(cmd *cobra.Command, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}
	records, err := parseRecords(data)
	if err != nil {
		return err
	}

	opts := &toon.EncodeOptions{
		SkipValidation: flagSkipValidation,
		FieldOrder:     fieldOrder(),
		Indent:         flagIndent,
	}
	if opts.NullHandling, err = parseNull(flagNull); err != nil {
		return err
	}
	if opts.EscapeStrategy, err = parseEscape(flagEscape); err != nil {
		return err
	}
	if flagUnixDates {
		opts.DateFormat = toon.DateUnixSeconds
	}

	out, err := toon.Encode(records, opts)
	if err != nil {
		return errors.Wrap(err, "encode")
	}
	logrus.WithFields(logrus.Fields{
		"records": len(records),
		"bytes":   len(out),
	}).Debug("encoded")
	return writeOutput(out)
}

// fieldOrder merges the --field-order flag with the field_order config key.
func fieldOrder() []string {
	if len(flagFieldOrder) > 0 {
		return flagFieldOrder
	}
	return viper.GetStringSlice("field_order")
}

func parseNull(s string) (toon.NullHandling, error) {
	switch strings.ToLower(s) {
	case "", "empty":
		return toon.NullEmpty, nil
	case "literal":
		return toon.NullLiteral, nil
	case "skip":
		return toon.NullSkip, nil
	}
	return 0, errors.Errorf("unknown null handling %q", s)
}

func parseEscape(s string) (toon.EscapeStrategy, error) {
	switch strings.ToLower(s) {
	case "", "quotes":
		return toon.EscapeQuotes, nil
	case "backslash":
		return toon.EscapeBackslash, nil
	case "url":
		return toon.EscapeURL, nil
	}
	return 0, errors.Errorf("unknown escape strategy %q", s)
}
