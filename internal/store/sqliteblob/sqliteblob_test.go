package sqliteblob

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bankledger/internal/store/blob"
)

func openTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(context.Background(), dsn, maxBytes)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), "  ", 0); err == nil {
		t.Fatal("Open with empty DSN succeeded, want error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	if _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("Load before Save = (ok=%v, err=%v), want absent", ok, err)
	}

	payload := []byte(`[{"id":"1"}]`)
	if err := s.Save(ctx, payload); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := s.Load(ctx)
	if err != nil || !ok || string(got) != string(payload) {
		t.Errorf("Load = (%q, %v, %v), want payload", got, ok, err)
	}
}

func TestSaveUpserts(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	if err := s.Save(ctx, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, _, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("Load = %q, want second", got)
	}
}

func TestQuota(t *testing.T) {
	s := openTestStore(t, 8)
	ctx := context.Background()

	if err := s.Save(ctx, []byte("ok")); err != nil {
		t.Fatal(err)
	}
	err := s.Save(ctx, make([]byte, 64))
	if !errors.Is(err, blob.ErrQuotaExceeded) {
		t.Fatalf("Save err = %v, want ErrQuotaExceeded", err)
	}
	got, _, err := s.Load(ctx)
	if err != nil || string(got) != "ok" {
		t.Errorf("previous blob not intact: (%q, %v)", got, err)
	}
}
