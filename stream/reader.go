package stream

import (
	"io"

	"github.com/tokenform/toon"
)

// defaultChunkSize is how many bytes Next pulls from the source per read.
const defaultChunkSize = 32 * 1024

// Reader streams records out of an io.Reader carrying a TOON document.
type Reader struct {
	r         io.Reader
	dec       *toon.StreamDecoder
	chunkSize int
	queue     []toon.Record
	flushed   bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithChunkSize sets the read chunk size.
func WithChunkSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// NewReader creates a streaming reader. Options follow toon.Decode.
func NewReader(r io.Reader, opts *toon.DecodeOptions, ropts ...ReaderOption) *Reader {
	reader := &Reader{
		r:         r,
		dec:       toon.NewStreamDecoder(opts),
		chunkSize: defaultChunkSize,
	}
	for _, opt := range ropts {
		opt(reader)
	}
	return reader
}

// Next returns the next record, or io.EOF when the source is drained.
func (r *Reader) Next() (toon.Record, error) {
	for len(r.queue) == 0 {
		if r.flushed {
			return nil, io.EOF
		}

		buf := make([]byte, r.chunkSize)
		n, err := r.r.Read(buf)
		if n > 0 {
			recs, derr := r.dec.Decode(string(buf[:n]))
			r.queue = append(r.queue, recs...)
			if derr != nil {
				return nil, derr
			}
		}
		if err == io.EOF {
			recs, derr := r.dec.Flush()
			r.flushed = true
			r.queue = append(r.queue, recs...)
			if derr != nil {
				return nil, derr
			}
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	rec := r.queue[0]
	r.queue = r.queue[1:]
	return rec, nil
}

// ReadAll drains the source and returns every record.
func (r *Reader) ReadAll() ([]toon.Record, error) {
	var out []toon.Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Schema returns the document schema, nil until the header has been read.
func (r *Reader) Schema() *toon.Schema {
	return r.dec.Schema()
}

// Diagnostics returns skipped-line diagnostics accumulated so far.
func (r *Reader) Diagnostics() []toon.StreamDiagnostic {
	return r.dec.Diagnostics()
}
