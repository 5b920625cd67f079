// Package datasource defines the byte-source contract consumed by the chunk
// scheduler: sequential access plus a known total size, which the scheduler
// needs to compute progress percentages.
package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// Source is a finite byte source of known size. One Open per import.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Size(ctx context.Context) (int64, error)
}

// Bytes is an in-memory Source, used by tests and small programmatic imports.
type Bytes struct{ data []byte }

// NewBytes returns a Source over the given data.
func NewBytes(data []byte) *Bytes { return &Bytes{data: data} }

func (b *Bytes) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (b *Bytes) Size(ctx context.Context) (int64, error) {
	return int64(len(b.data)), nil
}

// Reader adapts an already-open reader of known size (e.g. an uploaded
// multipart file) into a Source. Open may be called once.
type Reader struct {
	rc     io.ReadCloser
	size   int64
	opened bool
}

// NewReader wraps rc. Ownership of rc passes to the pipeline, which closes it
// when the import finishes.
func NewReader(rc io.ReadCloser, size int64) *Reader {
	return &Reader{rc: rc, size: size}
}

func (r *Reader) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if r.opened {
		return nil, fmt.Errorf("datasource: reader source already opened")
	}
	r.opened = true
	return r.rc, nil
}

func (r *Reader) Size(ctx context.Context) (int64, error) {
	return r.size, nil
}
