package toon

import (
	"strconv"
	"strings"
	"sync"
)

// StreamEncoder encodes a record stream incrementally, emitting
// ready-to-append text fragments so that a large export never requires the
// full document and the full record set in memory together.
//
// A StreamEncoder is owned by a single caller; the internal mutex guards
// against accidental sharing, it does not make interleaved use meaningful.
type StreamEncoder struct {
	mu      sync.Mutex
	opts    EncodeOptions
	schema  *Schema
	hash    string
	started bool
	count   int

	// StrictSchema rejects records that fail validation against the
	// initialized schema instead of encoding them blindly.
	StrictSchema bool
}

// NewStreamEncoder creates a streaming encoder. Options follow Encode; a
// pre-supplied opts.Schema skips the sampling step in Initialize.
func NewStreamEncoder(opts *EncodeOptions) *StreamEncoder {
	e := &StreamEncoder{}
	if opts != nil {
		e.opts = *opts
	}
	if e.opts.Indent == "" {
		e.opts.Indent = DefaultIndent
	}
	if e.opts.Schema != nil {
		e.schema = e.opts.Schema
		e.hash = e.schema.Hash()
	}
	return e
}

// Initialize fixes the stream's schema from a representative first batch.
// A schema supplied via options wins; otherwise it is inferred from the
// sample. Must be called (or a schema supplied) before WriteHeader.
func (e *StreamEncoder) Initialize(sample []Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.schema != nil {
		return nil
	}
	if len(sample) == 0 {
		return newError(CodeSchemaInferenceFailed, "empty sample batch")
	}

	schema, err := InferSchema(sample, &InferOptions{FieldOrder: e.opts.FieldOrder})
	if err != nil {
		return err
	}
	e.schema = schema
	e.hash = schema.Hash()
	return nil
}

// WriteHeader returns the header fragment. Pass a negative count when the
// total is unknown; the placeholder "[?]" is emitted and the caller
// reconciles it once the stream ends (see ReconcileHeader).
func (e *StreamEncoder) WriteHeader(count int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.schema == nil {
		return "", newError(CodeSchemaInferenceFailed,
			"encoder not initialized: no schema")
	}
	if e.started {
		return "", newError(CodeEncodeError, "header already written")
	}
	e.started = true
	return renderHeader(count, e.schema), nil
}

// EncodeRecord returns the fragment for one record, newline and
// indentation included, so fragments concatenate into a valid document.
func (e *StreamEncoder) EncodeRecord(rec Record) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encodeLocked(rec)
}

// EncodeBatch encodes a chunk of records into one fragment.
func (e *StreamEncoder) EncodeBatch(records []Record) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var sb strings.Builder
	for _, rec := range records {
		frag, err := e.encodeLocked(rec)
		if err != nil {
			return "", err
		}
		sb.WriteString(frag)
	}
	return sb.String(), nil
}

func (e *StreamEncoder) encodeLocked(rec Record) (string, error) {
	if e.schema == nil {
		return "", newError(CodeSchemaInferenceFailed,
			"encoder not initialized: no schema")
	}
	if !e.started {
		return "", newError(CodeEncodeError, "header not written")
	}

	if e.StrictSchema {
		result := ValidateRecords([]Record{rec}, e.schema, &ValidateOptions{FailFast: true})
		if !result.Valid {
			err := newError(CodeSchemaValidationFailed, "record failed validation")
			return "", err.withDetail("errors", result.Errors)
		}
	}

	row, err := encodeRow(rec, e.schema, &e.opts)
	if err != nil {
		return "", err
	}
	e.count++
	return "\n" + e.opts.Indent + row, nil
}

// CheckDrift infers a schema from a later batch and reports whether it
// still matches the stream's fixed schema. Useful between batches of a
// long export where the upstream shape may change mid-stream.
func (e *StreamEncoder) CheckDrift(sample []Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.schema == nil {
		return newError(CodeSchemaInferenceFailed,
			"encoder not initialized: no schema")
	}
	inferred, err := InferSchema(sample, &InferOptions{FieldOrder: e.opts.FieldOrder})
	if err != nil {
		return err
	}
	if inferred.Hash() != e.hash {
		return newError(CodeSchemaValidationFailed, "schema drift detected").
			withDetail("expected", e.schema.Canonical()).
			withDetail("actual", inferred.Canonical())
	}
	return nil
}

// RecordCount returns the number of records encoded so far.
func (e *StreamEncoder) RecordCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// Schema returns the stream's fixed schema, or nil before initialization.
func (e *StreamEncoder) Schema() *Schema {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schema
}

// ReconcileHeader rewrites a placeholder header in an assembled document
// with the encoder's final record count. A convenience for callers that
// buffered the whole output anyway; file-backed callers typically seek and
// overwrite instead.
func (e *StreamEncoder) ReconcileHeader(doc string) string {
	e.mu.Lock()
	count := e.count
	e.mu.Unlock()

	prefix := "[" + countPlaceholder + "]"
	if !strings.HasPrefix(doc, prefix) {
		return doc
	}
	return "[" + strconv.Itoa(count) + "]" + doc[len(prefix):]
}
