package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tokenform/toon"
)

var (
	flagCostPer1K float64
	flagCSV       bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Compare JSON and TOON sizes for a record set",
	Long: `Stats reads a JSON array of objects, encodes it both ways, and
reports estimated token and byte savings. Token counts use a ~4 runes per
token heuristic and are approximate.

Example:
  toon stats users.json
  toon stats users.json --cost-per-1k 0.003 --csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().Float64Var(&flagCostPer1K, "cost-per-1k", 0, "price per 1000 tokens for cost savings")
	statsCmd.Flags().BoolVar(&flagCSV, "csv", false, "emit the comparison as CSV")
}

func runStats(cmd *cobra.Command, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}
	records, err := parseRecords(data)
	if err != nil {
		return err
	}

	cost := flagCostPer1K
	if cost == 0 {
		cost = viper.GetFloat64("cost_per_1k")
	}
	cmp, err := toon.CompareFormats(records, &toon.CompareOptions{CostPer1KTokens: cost})
	if err != nil {
		return errors.Wrap(err, "compare formats")
	}

	if flagCSV {
		tracker := toon.NewTokenTracker()
		label := "stdin"
		if len(args) > 0 {
			label = args[0]
		}
		tracker.RecordUsage(label, cmp)
		out, err := tracker.ExportCSV()
		if err != nil {
			return errors.Wrap(err, "export csv")
		}
		return writeOutput(strings.TrimRight(out, "\n"))
	}
	return writeOutput(renderComparison(cmp))
}

// renderComparison formats a comparison as an aligned text table.
func renderComparison(c *toon.Comparison) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-10s %10s %10s\n", "format", "tokens", "bytes")
	fmt.Fprintf(&sb, "%-10s %10d %10d\n", c.Baseline.Format, c.Baseline.Tokens, c.Baseline.Bytes)
	fmt.Fprintf(&sb, "%-10s %10d %10d\n", c.Optimized.Format, c.Optimized.Tokens, c.Optimized.Bytes)
	fmt.Fprintf(&sb, "%-10s %10d %10d\n", "saved", c.TokensSaved, c.BytesSaved)
	fmt.Fprintf(&sb, "savings: %.1f%% tokens, %.1f%% bytes", c.TokensSavedPercent, c.BytesSavedPercent)
	if c.CostSaved > 0 {
		fmt.Fprintf(&sb, ", $%.6f", c.CostSaved)
	}
	return sb.String()
}
