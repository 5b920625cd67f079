// Package fileblob implements a single-file blob.Store. The payload is
// prefixed with an xxh3 content hash so a torn or corrupted write is detected
// on the next load, and writes go through a temp file plus rename so the
// previous blob survives any failure mid-write.
package fileblob

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"bankledger/internal/store/blob"
)

// header is an 8-byte little-endian xxh3 sum of the payload.
const headerLen = 8

// Store is a file-backed blob.Store.
type Store struct {
	path     string
	maxBytes int64 // payload quota; 0 means unlimited
}

// New returns a Store writing to path. maxBytes limits the payload size;
// zero disables the quota.
func New(path string, maxBytes int64) *Store {
	return &Store{path: path, maxBytes: maxBytes}
}

func (s *Store) Load(ctx context.Context) ([]byte, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fileblob: read %s: %w", s.path, err)
	}
	if len(raw) < headerLen {
		return nil, false, fmt.Errorf("fileblob: %s truncated: %w", s.path, blob.ErrChecksum)
	}

	sum := binary.LittleEndian.Uint64(raw[:headerLen])
	payload := raw[headerLen:]
	if xxh3.Hash(payload) != sum {
		return nil, false, fmt.Errorf("fileblob: %s: %w", s.path, blob.ErrChecksum)
	}
	return payload, true, nil
}

func (s *Store) Save(ctx context.Context, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return fmt.Errorf("fileblob: payload %d bytes over %d byte limit: %w",
			len(data), s.maxBytes, blob.ErrQuotaExceeded)
	}

	buf := make([]byte, headerLen+len(data))
	binary.LittleEndian.PutUint64(buf[:headerLen], xxh3.Hash(data))
	copy(buf[headerLen:], data)

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("fileblob: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("fileblob: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("fileblob: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("fileblob: rename: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
