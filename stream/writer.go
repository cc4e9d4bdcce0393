// Package stream provides io.Reader/io.Writer adapters over the
// incremental TOON codec, for callers moving documents through files,
// sockets, or pipes without holding the full record set in memory.
package stream

import (
	"io"
	"strings"
	"sync"

	"github.com/tokenform/toon"
)

// Writer streams records to an io.Writer as one TOON document.
//
// When the total record count is known, call SetCount before the first
// record and rows are written through as they arrive. Without a count the
// document grows in memory and is written in one piece on Close, so the
// header can carry the real count instead of the placeholder.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	enc     *toon.StreamEncoder
	count   int
	started bool
	pending []string
	closed  bool
}

// NewWriter creates a streaming writer. Options follow toon.Encode; a
// supplied Schema fixes the columns, otherwise they are inferred from the
// first record written.
func NewWriter(w io.Writer, opts *toon.EncodeOptions) *Writer {
	return &Writer{
		w:     w,
		enc:   toon.NewStreamEncoder(opts),
		count: -1,
	}
}

// SetCount declares the total record count up front, enabling
// write-through mode. Must be called before the first record.
func (w *Writer) SetCount(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errState("count must be set before the first record")
	}
	w.count = n
	return nil
}

// WriteRecord appends one record to the document.
func (w *Writer) WriteRecord(rec toon.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeLocked(rec)
}

// WriteAll appends a batch of records.
func (w *Writer) WriteAll(records []toon.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, rec := range records {
		if err := w.writeLocked(rec); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeLocked(rec toon.Record) error {
	if w.closed {
		return errState("writer is closed")
	}

	if !w.started {
		if err := w.enc.Initialize([]toon.Record{rec}); err != nil {
			return err
		}
		header, err := w.enc.WriteHeader(w.count)
		if err != nil {
			return err
		}
		w.started = true
		if w.count >= 0 {
			if _, err := io.WriteString(w.w, header); err != nil {
				return err
			}
		} else {
			w.pending = append(w.pending, header)
		}
	}

	frag, err := w.enc.EncodeRecord(rec)
	if err != nil {
		return err
	}
	if w.count >= 0 {
		_, err = io.WriteString(w.w, frag)
		return err
	}
	w.pending = append(w.pending, frag)
	return nil
}

// Close finalizes the document and writes a trailing newline. For
// count-unknown writers this is where the buffered document, header
// reconciled to the real count, reaches the underlying writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if !w.started {
		// Nothing was written: an empty dataset.
		_, err := io.WriteString(w.w, "[0]{}:\n")
		return err
	}

	if w.count < 0 {
		doc := w.enc.ReconcileHeader(strings.Join(w.pending, ""))
		w.pending = nil
		if _, err := io.WriteString(w.w, doc); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w.w, "\n")
	return err
}

// RecordCount returns the number of records written so far.
func (w *Writer) RecordCount() int {
	return w.enc.RecordCount()
}

// Schema returns the writer's fixed schema, nil before the first record
// when no schema was supplied.
func (w *Writer) Schema() *toon.Schema {
	return w.enc.Schema()
}

func errState(msg string) error {
	return &toon.Error{Code: toon.CodeEncodeError, Message: msg}
}
