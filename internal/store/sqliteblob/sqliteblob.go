// Package sqliteblob implements a SQLite-backed blob.Store using
// database/sql. The ledger occupies a single row in a key/value table, so
// every Save is one upsert inside an implicit transaction and atomicity comes
// for free from SQLite.
package sqliteblob

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver; replace with your preferred driver if desired.
	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3

	"bankledger/internal/store/blob"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_blobs (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

// Store is a SQLite-backed blob.Store.
type Store struct {
	db       *sql.DB
	maxBytes int64
}

// Open opens a SQLite connection using the provided DSN and ensures the blob
// table exists. maxBytes limits the payload size; zero disables the quota.
//
// DSN is passed directly to database/sql; for example:
//
//	"file:ledger.db?cache=shared"
//	"ledger.db"
func Open(ctx context.Context, dsn string, maxBytes int64) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqliteblob: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqliteblob: open: %w", err)
	}

	// Fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqliteblob: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqliteblob: ensure table: %w", err)
	}

	return &Store{db: db, maxBytes: maxBytes}, nil
}

func (s *Store) Load(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM ledger_blobs WHERE key = ?", blob.Key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqliteblob: load: %w", err)
	}
	return data, true, nil
}

func (s *Store) Save(ctx context.Context, data []byte) error {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return fmt.Errorf("sqliteblob: payload %d bytes over %d byte limit: %w",
			len(data), s.maxBytes, blob.ErrQuotaExceeded)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_blobs (key, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		blob.Key, data, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sqliteblob: save: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
