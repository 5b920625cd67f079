package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bankledger/internal/ingest"
)

const sampleCSV = "Transaction ID,Date,Description,Amount,Transaction Type,Account Number\n" +
	"txn-1,2026-01-02,Salary,2000,Credit,ACC-1\n"

// csvServer serves sampleCSV with a proper content type and length.
func csvServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(sampleCSV)))
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, sampleCSV)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fastConfig() Config {
	return Config{
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestStatement_SizeAndOpen(t *testing.T) {
	t.Parallel()
	srv := csvServer(t)

	src := New(srv.URL, fastConfig())

	size, err := src.Size(context.Background())
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != int64(len(sampleCSV)) {
		t.Fatalf("Size = %d, want %d", size, len(sampleCSV))
	}

	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != sampleCSV {
		t.Fatalf("body = %q, want sample CSV", body)
	}
}

func TestStatement_RejectsWrongContentType(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"not":"csv"}`)
	}))
	t.Cleanup(srv.Close)

	src := New(srv.URL, fastConfig())
	_, err := src.Open(context.Background())
	if !errors.Is(err, ingest.ErrUnsupportedFormat) {
		t.Fatalf("Open error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestStatement_SizeRequiresContentLength(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Chunked response: no Content-Length on HEAD either.
		w.Header().Set("Content-Type", "text/csv")
		if r.Method != http.MethodHead {
			_, _ = io.WriteString(w, sampleCSV)
		}
	}))
	t.Cleanup(srv.Close)

	src := New(srv.URL, fastConfig())
	if _, err := src.Size(context.Background()); err == nil {
		t.Fatalf("Size without Content-Length should fail")
	} else if !strings.Contains(err.Error(), "content length") {
		t.Fatalf("Size error = %v", err)
	}
}

func TestStatement_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, sampleCSV)
	}))
	t.Cleanup(srv.Close)

	src := New(srv.URL, fastConfig())
	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open after transient failures: %v", err)
	}
	rc.Close()

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("server saw %d calls, want 3 (two 503s then success)", got)
	}
}

func TestStatement_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	src := New(srv.URL, fastConfig())
	if _, err := src.Open(context.Background()); err == nil {
		t.Fatalf("Open of a 404 should fail")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("server saw %d calls, want 1 (404 is final)", got)
	}
}

func TestStatement_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	cfg := fastConfig()
	cfg.MaxRetries = 2
	src := New(srv.URL, cfg)
	if _, err := src.Open(context.Background()); err == nil {
		t.Fatalf("Open should fail after exhausting retries")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("server saw %d calls, want 3 (initial + 2 retries)", got)
	}
}

func TestStatement_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := New("http://127.0.0.1:1/never", fastConfig())
	if _, err := src.Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open with canceled ctx = %v, want context.Canceled", err)
	}
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		initial time.Duration
		attempt int
		max     time.Duration
		want    time.Duration
	}{
		{100 * time.Millisecond, 0, time.Second, 100 * time.Millisecond},
		{100 * time.Millisecond, 1, time.Second, 200 * time.Millisecond},
		{100 * time.Millisecond, 2, time.Second, 400 * time.Millisecond},
		{100 * time.Millisecond, 5, time.Second, time.Second},
		{2 * time.Second, 0, time.Second, time.Second},
	}
	for _, tt := range tests {
		if got := backoffDuration(tt.initial, tt.attempt, tt.max); got != tt.want {
			t.Fatalf("backoffDuration(%v, %d, %v) = %v, want %v", tt.initial, tt.attempt, tt.max, got, tt.want)
		}
	}
}
