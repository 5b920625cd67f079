// Package remote implements an HTTP-backed statement source with built-in
// retry/backoff and optional TLS verification skipping. It lets an import run
// against a statement published at a URL (e.g. a bank export endpoint)
// instead of a local file.
//
// Design goals:
//
//   - Satisfy the datasource.Source contract: Size from Content-Length,
//     bytes from a single streaming GET.
//   - Handle transient failures with exponential backoff.
//   - Gate on the declared Content-Type (text/csv); the bytes are never
//     sniffed.
//   - Respect context cancellation during requests and backoff waits.
//   - Be easy to test by injecting a custom RoundTripper.
package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"bankledger/internal/ingest"
)

// Config configures the remote source.
//
// Zero values are given sensible defaults:
//   - Timeout:        30s
//   - MaxRetries:     3
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	// MaxRetries=0 means "no retries" (only the initial attempt).
	MaxRetries int

	// InitialBackoff is the base backoff duration for the first retry.
	// Each subsequent retry doubles the previous backoff up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration.
	MaxBackoff time.Duration

	// InsecureSkipVerify disables TLS certificate verification, for servers
	// with self-signed certificates. Use with care.
	InsecureSkipVerify bool

	// Transport is an optional custom RoundTripper. When nil, a default
	// *http.Transport is constructed based on the TLS settings.
	Transport http.RoundTripper
}

// Statement is a datasource.Source reading a CSV statement over HTTP.
type Statement struct {
	url            string
	client         *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// New constructs a Statement source for the given URL, applying defaults for
// zero Config values.
func New(url string, cfg Config) *Statement {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	return &Statement{
		url: url,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}
}

// Size issues a HEAD request and reports the statement's Content-Length.
// Servers that do not declare a length cannot drive progress reporting, so a
// missing or non-positive length is an error.
func (s *Statement) Size(ctx context.Context) (int64, error) {
	resp, err := s.do(ctx, http.MethodHead)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.ContentLength <= 0 {
		return 0, fmt.Errorf("remote: %s did not declare a content length", s.url)
	}
	return resp.ContentLength, nil
}

// Open issues a GET request and returns the response body for streaming. The
// declared Content-Type must be text/csv.
func (s *Statement) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.do(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}

	ct := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err != nil || !strings.EqualFold(mt, "text/csv") {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w (got %q)", ingest.ErrUnsupportedFormat, ct)
	}
	return resp.Body, nil
}

// do sends one request with retry and backoff on transient errors. The
// returned response has a non-nil Body which the caller must close.
func (s *Statement) do(ctx context.Context, method string) (*http.Response, error) {
	attempts := s.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		// Respect context cancellation before each attempt.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, s.url, nil)
		if err != nil {
			return nil, fmt.Errorf("remote: build request: %w", err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			// Network or transport-level error. Treat as retryable.
			lastErr = err
		} else if isRetryableStatus(resp.StatusCode) {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("remote: retryable status %d from %s %s", resp.StatusCode, method, s.url)
		} else if resp.StatusCode >= 400 {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("remote: status %d from %s %s", resp.StatusCode, method, s.url)
		} else {
			return resp, nil
		}

		// If this was the last allowed attempt, return the last error.
		if attempt+1 >= attempts {
			return nil, lastErr
		}

		if err := sleepWithContext(ctx, backoffDuration(s.initialBackoff, attempt, s.maxBackoff)); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// isRetryableStatus reports whether the given HTTP status code should trigger
// a retry. This is intentionally conservative: 5xx and 429 are treated as
// transient; everything else is considered final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the exponential backoff duration for the given
// attempt number (0-based retry index), clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	// exponential: initial * 2^attempt
	d := initial << attempt
	if d > max {
		return max
	}
	return d
}

// sleepWithContext waits for d, aborting early if ctx is canceled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
