package toon

import (
	"strings"
	"sync"
)

// StreamDiagnostic records a body line the streaming decoder skipped.
type StreamDiagnostic struct {
	Line    int // 1-based line number in the stream
	Message string
}

// StreamDecoder parses a TOON document fed in arbitrary-sized chunks. It
// carries a partial line across chunk boundaries, parses the header once,
// and yields complete records as soon as their line is fully present.
//
// Unlike the batch decoder, a malformed body line is not fatal: it is
// skipped and recorded as a diagnostic, so one corrupt row in a long
// stream does not discard everything after it. A malformed header is still
// fatal — nothing can be decoded without it.
//
// Not safe for concurrent use; each stream consumer owns one decoder.
type StreamDecoder struct {
	mu       sync.Mutex
	opts     DecodeOptions
	buf      strings.Builder
	header   bool
	declared int
	schema   *Schema
	parsed   int
	lineNum  int
	diags    []StreamDiagnostic
}

// NewStreamDecoder creates a streaming decoder. Options follow Decode.
func NewStreamDecoder(opts *DecodeOptions) *StreamDecoder {
	d := &StreamDecoder{declared: -1}
	if opts != nil {
		d.opts = *opts
	}
	return d
}

// Decode feeds one chunk and returns the records completed by it. A
// trailing partial line is buffered for the next call.
func (d *StreamDecoder) Decode(chunk string) ([]Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf.WriteString(chunk)
	data := d.buf.String()

	var records []Record
	for {
		nl := strings.IndexByte(data, '\n')
		if nl < 0 {
			break
		}
		line := data[:nl]
		data = data[nl+1:]

		rec, ok, err := d.consumeLine(line)
		if err != nil {
			return records, err
		}
		if ok {
			records = append(records, rec)
		}
	}

	d.buf.Reset()
	d.buf.WriteString(data)
	return records, nil
}

// Flush interprets any final unterminated buffered content as one last
// line and returns the records it yields.
func (d *StreamDecoder) Flush() ([]Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rest := d.buf.String()
	d.buf.Reset()
	if strings.TrimRight(rest, "\r") == "" {
		return nil, nil
	}

	rec, ok, err := d.consumeLine(rest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []Record{rec}, nil
}

// consumeLine handles one complete line: header first, then rows. ok is
// false for the header line, skipped lines, and lines past the declared
// count.
func (d *StreamDecoder) consumeLine(line string) (Record, bool, error) {
	d.lineNum++
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		// Indented empty body lines are rows of empty cells; truly empty
		// lines are separators.
		if !d.header || strings.TrimRight(line, "\r") == "" {
			return nil, false, nil
		}
	}

	if !d.header {
		declared, schema, err := parseHeader(trimmed)
		if err != nil {
			return nil, false, err
		}
		if d.opts.Schema != nil {
			if !headerCompatible(schema, d.opts.Schema) {
				return nil, false, newError(CodeSchemaValidationFailed,
					"stream schema is incompatible with the supplied schema").
					withDetail("header", schema.Canonical()).
					withDetail("supplied", d.opts.Schema.Canonical())
			}
			schema = d.opts.Schema
		}
		d.header = true
		d.declared = declared
		d.schema = schema
		return nil, false, nil
	}

	if d.declared >= 0 && d.parsed >= d.declared {
		// Past the declared count: same leniency as the batch decoder.
		return nil, false, nil
	}

	rec, err := decodeRowLine(trimmed, d.schema, &d.opts)
	if err != nil {
		d.diags = append(d.diags, StreamDiagnostic{Line: d.lineNum, Message: err.Error()})
		return nil, false, nil
	}

	d.parsed++
	return rec, true, nil
}

// IsComplete reports whether the declared record count has been reached.
// Streams with a placeholder count never self-complete; the caller decides
// when to Flush.
func (d *StreamDecoder) IsComplete() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.header && d.declared >= 0 && d.parsed >= d.declared
}

// Progress returns parsed-vs-expected record counts. Expected is -1 until
// the header is parsed, and for placeholder-count streams.
func (d *StreamDecoder) Progress() (parsed, expected int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.header {
		return d.parsed, -1
	}
	return d.parsed, d.declared
}

// Diagnostics returns the skipped-line records accumulated so far.
func (d *StreamDecoder) Diagnostics() []StreamDiagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]StreamDiagnostic, len(d.diags))
	copy(out, d.diags)
	return out
}

// Schema returns the header-derived (or supplied) schema, nil before the
// header has been parsed.
func (d *StreamDecoder) Schema() *Schema {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.schema
}
