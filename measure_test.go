package toon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"one_token", "abcd", 1},
		{"round_up", "abcde", 2},
		{"runes_not_bytes", "日本語", 1},
		{"longer", strings.Repeat("x", 40), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.in))
		})
	}
}

func TestCompareFormats(t *testing.T) {
	records := make([]Record, 20)
	for i := range records {
		records[i] = Record{"identifier": i, "display_name": "user", "score": i * 3}
	}

	cmp, err := CompareFormats(records, nil)
	require.NoError(t, err)

	assert.Equal(t, FormatJSON, cmp.Baseline.Format)
	assert.Equal(t, FormatTOON, cmp.Optimized.Format)
	assert.Equal(t, 20, cmp.Baseline.Records)

	assert.Greater(t, cmp.TokensSaved, 0, "repeated keys make JSON strictly larger")
	assert.Greater(t, cmp.BytesSaved, 0)
	assert.InDelta(t,
		float64(cmp.TokensSaved)/float64(cmp.Baseline.Tokens)*100,
		cmp.TokensSavedPercent, 0.001)
	assert.Zero(t, cmp.CostSaved, "no cost without a price")
}

func TestCompareFormats_SavingsGrowWithBatch(t *testing.T) {
	batch := func(n int) []Record {
		out := make([]Record, n)
		for i := range out {
			out[i] = Record{"identifier": i, "display_name": "user"}
		}
		return out
	}

	small, err := CompareFormats(batch(5), nil)
	require.NoError(t, err)
	large, err := CompareFormats(batch(50), nil)
	require.NoError(t, err)

	assert.Greater(t, large.TokensSaved, small.TokensSaved,
		"the per-record key overhead compounds with batch size")
}

func TestCompareFormats_Cost(t *testing.T) {
	records := []Record{{"identifier": 1, "display_name": "user"}}

	cmp, err := CompareFormats(records, &CompareOptions{CostPer1KTokens: 10})
	require.NoError(t, err)
	assert.InDelta(t, float64(cmp.TokensSaved)/1000*10, cmp.CostSaved, 1e-9)
}

func TestCompareFormats_UnknownFormat(t *testing.T) {
	_, err := CompareFormats([]Record{{"a": 1}}, &CompareOptions{Baseline: "xml"})
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
}

func TestMeasureText(t *testing.T) {
	m := MeasureText(FormatTOON, "[1]{a}:\n  1", 1)
	assert.Equal(t, FormatTOON, m.Format)
	assert.Equal(t, 11, m.Bytes)
	assert.Equal(t, 3, m.Tokens)
	assert.Equal(t, 1, m.Records)
}

// ============================================================
// Token tracker
// ============================================================

func TestTokenTracker(t *testing.T) {
	records := []Record{{"identifier": 1, "display_name": "user"}}
	cmp, err := CompareFormats(records, nil)
	require.NoError(t, err)

	tracker := NewTokenTracker()
	e1 := tracker.RecordUsage("batch-1", cmp)
	e2 := tracker.RecordUsage("batch-2", cmp)

	assert.NotEmpty(t, e1.ID)
	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Equal(t, "batch-1", e1.Label)
	assert.False(t, e1.At.IsZero())

	stats := tracker.Statistics()
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 2*cmp.Baseline.Tokens, stats.TotalBaselineTokens)
	assert.Equal(t, 2*cmp.Optimized.Tokens, stats.TotalOptimizedTokens)
	assert.Equal(t, 2*cmp.TokensSaved, stats.TotalTokensSaved)
	assert.InDelta(t, cmp.TokensSavedPercent, stats.AverageSavedPercent, 0.001)

	assert.Len(t, tracker.Entries(), 2)

	tracker.Reset()
	assert.Zero(t, tracker.Statistics().Count)
	assert.Empty(t, tracker.Entries())
}

func TestTokenTracker_ExportCSV(t *testing.T) {
	records := []Record{{"identifier": 1, "display_name": "user"}}
	cmp, err := CompareFormats(records, nil)
	require.NoError(t, err)

	tracker := NewTokenTracker()
	tracker.RecordUsage("export-test", cmp)

	out, err := tracker.ExportCSV()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,label,timestamp"))
	assert.Contains(t, lines[1], "export-test")
	assert.Contains(t, lines[1], FormatJSON)
	assert.Contains(t, lines[1], FormatTOON)
}

func TestTokenTracker_EmptyStats(t *testing.T) {
	tracker := NewTokenTracker()
	stats := tracker.Statistics()
	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.AverageSavedPercent)

	out, err := tracker.ExportCSV()
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"), "header only")
}
