// Package pgblob implements a Postgres-backed blob.Store using pgx v5. The
// ledger occupies a single row in a key/value table; every Save is one upsert
// so the previous blob is replaced atomically.
package pgblob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bankledger/internal/store/blob"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_blobs (
	key        text PRIMARY KEY,
	data       bytea NOT NULL,
	updated_at timestamptz NOT NULL
)`

// Store is a Postgres-backed blob.Store.
type Store struct {
	pool     *pgxpool.Pool
	maxBytes int64
}

// Open connects via pgxpool and ensures the blob table exists. maxBytes
// limits the payload size; zero disables the quota.
func Open(ctx context.Context, dsn string, maxBytes int64) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("pgblob: DSN must not be empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgblob: pgxpool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgblob: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgblob: ensure table: %w", err)
	}

	return &Store{pool: pool, maxBytes: maxBytes}, nil
}

func (s *Store) Load(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		"SELECT data FROM ledger_blobs WHERE key = $1", blob.Key,
	).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pgblob: load: %w", err)
	}
	return data, true, nil
}

func (s *Store) Save(ctx context.Context, data []byte) error {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return fmt.Errorf("pgblob: payload %d bytes over %d byte limit: %w",
			len(data), s.maxBytes, blob.ErrQuotaExceeded)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_blobs (key, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		blob.Key, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("pgblob: save: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
