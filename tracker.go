package toon

import (
	"encoding/csv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TrackerEntry is one recorded comparison.
type TrackerEntry struct {
	ID        string
	Label     string
	At        time.Time
	Baseline  Measurement
	Optimized Measurement

	TokensSaved        int
	TokensSavedPercent float64
	CostSaved          float64
}

// TrackerStats aggregates everything a tracker has seen.
type TrackerStats struct {
	Count                int
	TotalBaselineTokens  int
	TotalOptimizedTokens int
	TotalTokensSaved     int
	AverageSavedPercent  float64
	TotalCostSaved       float64
}

// TokenTracker accumulates token-usage comparisons across calls. It holds
// state in memory only; callers own persistence. Safe for concurrent use.
type TokenTracker struct {
	mu      sync.Mutex
	entries []TrackerEntry
}

// NewTokenTracker returns an empty tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// RecordUsage records one comparison under a free-form label and returns
// the stored entry.
func (t *TokenTracker) RecordUsage(label string, c *Comparison) TrackerEntry {
	e := TrackerEntry{
		ID:        uuid.NewString(),
		Label:     label,
		At:        time.Now().UTC(),
		Baseline:  c.Baseline,
		Optimized: c.Optimized,

		TokensSaved:        c.TokensSaved,
		TokensSavedPercent: c.TokensSavedPercent,
		CostSaved:          c.CostSaved,
	}
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
	return e
}

// Entries returns a copy of all recorded entries in recording order.
func (t *TokenTracker) Entries() []TrackerEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TrackerEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Reset discards all recorded entries.
func (t *TokenTracker) Reset() {
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()
}

// Statistics aggregates the recorded entries.
func (t *TokenTracker) Statistics() TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := TrackerStats{Count: len(t.entries)}
	if s.Count == 0 {
		return s
	}
	var pctSum float64
	for _, e := range t.entries {
		s.TotalBaselineTokens += e.Baseline.Tokens
		s.TotalOptimizedTokens += e.Optimized.Tokens
		s.TotalTokensSaved += e.TokensSaved
		s.TotalCostSaved += e.CostSaved
		pctSum += e.TokensSavedPercent
	}
	s.AverageSavedPercent = pctSum / float64(s.Count)
	return s
}

// ExportCSV renders all entries as CSV with a header row.
func (t *TokenTracker) ExportCSV() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write([]string{
		"id", "label", "timestamp",
		"baseline_format", "baseline_tokens",
		"optimized_format", "optimized_tokens",
		"tokens_saved", "saved_percent", "cost_saved",
	}); err != nil {
		return "", newError(CodeEncodeError, "csv export failed: %v", err)
	}
	for _, e := range t.entries {
		row := []string{
			e.ID,
			e.Label,
			e.At.Format(time.RFC3339),
			e.Baseline.Format,
			strconv.Itoa(e.Baseline.Tokens),
			e.Optimized.Format,
			strconv.Itoa(e.Optimized.Tokens),
			strconv.Itoa(e.TokensSaved),
			strconv.FormatFloat(e.TokensSavedPercent, 'f', 2, 64),
			strconv.FormatFloat(e.CostSaved, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", newError(CodeEncodeError, "csv export failed: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", newError(CodeEncodeError, "csv export failed: %v", err)
	}
	return sb.String(), nil
}
