package toon

import (
	"encoding/json"
	"unicode/utf8"
)

// Format names used by the measurement layer.
const (
	FormatJSON = "json"
	FormatTOON = "toon"
)

// EstimateTokens estimates the number of LLM tokens in a string.
//
// This is a chars-per-token heuristic (~4 runes per token, the common
// figure for GPT-style tokenizers), not a real tokenizer: treat results as
// approximate and comparative, not exact. Rune count is used instead of
// byte count so multi-byte text is not over-charged.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (utf8.RuneCountInString(s) + 3) / 4
}

// Measurement reports the size of one encoding of a record set.
type Measurement struct {
	Format  string
	Tokens  int
	Bytes   int
	Records int
}

// MeasureText measures an already-encoded document.
func MeasureText(format, text string, records int) Measurement {
	return Measurement{
		Format:  format,
		Tokens:  EstimateTokens(text),
		Bytes:   len(text),
		Records: records,
	}
}

// CompareOptions configures CompareFormats.
type CompareOptions struct {
	// Baseline and Optimized name the two formats. Defaults: json, toon.
	Baseline  string
	Optimized string

	// Encode configures the TOON side.
	Encode *EncodeOptions

	// CostPer1KTokens, when positive, adds cost-savings arithmetic to the
	// comparison (price per thousand tokens, e.g. in USD).
	CostPer1KTokens float64
}

// Comparison reports the savings of the optimized encoding over the
// baseline for the same data.
type Comparison struct {
	Baseline  Measurement
	Optimized Measurement

	TokensSaved        int
	TokensSavedPercent float64
	BytesSaved         int
	BytesSavedPercent  float64

	// CostSaved is zero unless CostPer1KTokens was supplied.
	CostSaved float64
}

// CompareFormats encodes the same data under two formats, measures both,
// and reports absolute and percentage savings. For uniform record sets of
// non-trivial size TOON is never worse than JSON: the schema is paid for
// once in the header while JSON repeats every key in every record.
func CompareFormats(data []Record, opts *CompareOptions) (*Comparison, error) {
	o := CompareOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Baseline == "" {
		o.Baseline = FormatJSON
	}
	if o.Optimized == "" {
		o.Optimized = FormatTOON
	}

	baseText, err := encodeAs(o.Baseline, data, o.Encode)
	if err != nil {
		return nil, err
	}
	optText, err := encodeAs(o.Optimized, data, o.Encode)
	if err != nil {
		return nil, err
	}

	c := &Comparison{
		Baseline:  MeasureText(o.Baseline, baseText, len(data)),
		Optimized: MeasureText(o.Optimized, optText, len(data)),
	}
	c.TokensSaved = c.Baseline.Tokens - c.Optimized.Tokens
	c.BytesSaved = c.Baseline.Bytes - c.Optimized.Bytes
	if c.Baseline.Tokens > 0 {
		c.TokensSavedPercent = float64(c.TokensSaved) / float64(c.Baseline.Tokens) * 100
	}
	if c.Baseline.Bytes > 0 {
		c.BytesSavedPercent = float64(c.BytesSaved) / float64(c.Baseline.Bytes) * 100
	}
	if o.CostPer1KTokens > 0 {
		c.CostSaved = float64(c.TokensSaved) / 1000 * o.CostPer1KTokens
	}
	return c, nil
}

// encodeAs produces the named encoding of a record set.
func encodeAs(format string, data []Record, opts *EncodeOptions) (string, error) {
	switch format {
	case FormatTOON:
		return Encode(data, opts)
	case FormatJSON:
		b, err := json.Marshal(data)
		if err != nil {
			return "", newError(CodeEncodeError, "json encoding failed: %v", err)
		}
		return string(b), nil
	}
	return "", newError(CodeInvalidInput, "unknown format %q", format)
}
