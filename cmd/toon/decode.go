package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tokenform/toon"
)

var (
	flagNoCoerce     bool
	flagStrict       bool
	flagDecodeEscape string
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a TOON document back to JSON",
	Long: `Decode reads a TOON document from a file or stdin and writes the
records as a JSON array. Bare numeric, boolean, null and date tokens are
coerced to native JSON values unless --no-coerce is given.

Example:
  toon decode users.toon
  toon decode users.toon --strict`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().BoolVar(&flagNoCoerce, "no-coerce", false, "decode every scalar as a string")
	decodeCmd.Flags().BoolVar(&flagStrict, "strict", false, "reject rows with missing or extra cells")
	decodeCmd.Flags().StringVar(&flagDecodeEscape, "escape", "quotes", "escape strategy the document was encoded with")
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}

	opts := &toon.DecodeOptions{
		CoerceTypes: !flagNoCoerce,
		Strict:      flagStrict,
	}
	if opts.EscapeStrategy, err = parseEscape(flagDecodeEscape); err != nil {
		return err
	}

	records, err := toon.Decode(string(data), opts)
	if err != nil {
		return errors.Wrap(err, "decode")
	}
	logrus.WithField("records", len(records)).Debug("decoded")

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal records")
	}
	return writeOutput(string(out))
}
