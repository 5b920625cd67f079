package store

import (
	"context"
	"fmt"

	"bankledger/internal/store/blob"
	"bankledger/internal/store/fileblob"
	"bankledger/internal/store/pgblob"
	"bankledger/internal/store/sqliteblob"
)

// BlobConfig selects and configures a persistence backend.
type BlobConfig struct {
	// Kind is "file", "sqlite", or "postgres".
	Kind string

	// Path is the blob file path for the file backend.
	Path string

	// DSN is the connection string for the sqlite and postgres backends.
	DSN string

	// MaxBytes caps the serialized ledger size; 0 means unlimited.
	MaxBytes int64
}

// OpenBlob constructs the blob backend named by cfg.Kind.
func OpenBlob(ctx context.Context, cfg BlobConfig) (blob.Store, error) {
	switch cfg.Kind {
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: file backend requires a path")
		}
		return fileblob.New(cfg.Path, cfg.MaxBytes), nil
	case "sqlite":
		return sqliteblob.Open(ctx, cfg.DSN, cfg.MaxBytes)
	case "postgres":
		return pgblob.Open(ctx, cfg.DSN, cfg.MaxBytes)
	default:
		return nil, fmt.Errorf("store: unsupported blob kind %q", cfg.Kind)
	}
}
