package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tokenform/toon"
)

const version = "0.1.0"

// Global flag values.
var (
	flagVerbose bool
	flagOutput  string
)

var rootCmd = &cobra.Command{
	Use:     "toon",
	Short:   "toon encodes record sets in a token-optimized notation",
	Version: version,
	Long: `toon converts between JSON arrays of objects and TOON, a compact
tabular notation that states each field name once in a header instead of
repeating it per record. Input is read from a file argument or stdin;
output goes to stdout or --output.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "write output to file instead of stdout")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(statsCmd)
}

// readInput returns the contents of the file argument, or stdin when no
// argument was given.
func readInput(args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", args[0])
		}
		return data, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, errors.Wrap(err, "read stdin")
	}
	return data, nil
}

// writeOutput writes to --output when set, stdout otherwise. A trailing
// newline is appended for terminal friendliness.
func writeOutput(s string) error {
	if flagOutput != "" {
		if err := os.WriteFile(flagOutput, []byte(s+"\n"), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", flagOutput)
		}
		return nil
	}
	_, err := os.Stdout.WriteString(s + "\n")
	return err
}

// parseRecords unmarshals a JSON array of objects into records.
func parseRecords(data []byte) ([]toon.Record, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse JSON input")
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errors.New("input must be a JSON array of objects")
	}
	records := make([]toon.Record, 0, len(items))
	for i, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, errors.Errorf("element %d is not an object", i)
		}
		records = append(records, toon.Record(rec))
	}
	return records, nil
}
