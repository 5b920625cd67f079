package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// -----------------------------------------------------------------------------
// Config decoding tests
// -----------------------------------------------------------------------------
//
// These tests validate that the top-level Config JSON structure decodes into
// the intended Go struct graph. The goal is to ensure the JSON schema used in
// config files (configs/*.json) maps cleanly to the Go types. We prefer
// parsing from JSON strings here to keep tests hermetic and focused on the API
// surface rather than filesystem wiring.

func TestConfig_DecodeRoundTrip(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "household-2026",
	  "store": {
	    "kind": "sqlite",
	    "dsn": "file:ledger.db",
	    "max_bytes": 5242880
	  },
	  "ingest": {
	    "chunk_size": 1048576,
	    "flush_trailing": true
	  },
	  "server": { "addr": ":8080" },
	  "metrics": {
	    "backend": "prometheus",
	    "pushgateway_url": "http://pushgateway:9091"
	  }
	}`

	var c Config
	if err := json.Unmarshal([]byte(js), &c); err != nil {
		t.Fatalf("json.Unmarshal(Config): %v", err)
	}

	if c.Job != "household-2026" {
		t.Fatalf("job = %q, want household-2026", c.Job)
	}

	// Store
	if c.Store.Kind != "sqlite" || c.Store.DSN != "file:ledger.db" {
		t.Fatalf("store decoded = %#v, want kind=sqlite dsn=file:ledger.db", c.Store)
	}
	if c.Store.MaxBytes != 5242880 {
		t.Fatalf("store.max_bytes = %d, want 5242880", c.Store.MaxBytes)
	}

	// Ingest options bag
	if got := c.Ingest.Int("chunk_size", 0); got != 1048576 {
		t.Fatalf("ingest.chunk_size = %d, want 1048576", got)
	}
	if got := c.Ingest.Bool("flush_trailing", false); !got {
		t.Fatalf("ingest.flush_trailing = %v, want true", got)
	}

	// Server
	if c.Server.Addr != ":8080" {
		t.Fatalf("server.addr = %q, want :8080", c.Server.Addr)
	}

	// Metrics
	if c.Metrics.Backend != "prometheus" {
		t.Fatalf("metrics.backend = %q, want prometheus", c.Metrics.Backend)
	}
	if c.Metrics.PushgatewayURL != "http://pushgateway:9091" {
		t.Fatalf("metrics.pushgateway_url = %q", c.Metrics.PushgatewayURL)
	}
}

// -----------------------------------------------------------------------------
// Load tests
// -----------------------------------------------------------------------------

func TestLoad_FromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	const js = `{
	  "job": "test",
	  "store": { "kind": "file", "path": "ledger.blob" }
	}`
	if err := os.WriteFile(path, []byte(js), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Job != "test" || cfg.Store.Kind != "file" || cfg.Store.Path != "ledger.blob" {
		t.Fatalf("Load decoded = %#v", cfg)
	}
	// Missing ingest block must still yield a usable Options map.
	if cfg.Ingest == nil {
		t.Fatalf("Ingest is nil, want non-nil empty Options")
	}
	if got := cfg.Ingest.Int("chunk_size", 99); got != 99 {
		t.Fatalf("Ingest.Int default = %d, want 99", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("Load(missing file) error = nil, want non-nil")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"job": `), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load(malformed JSON) error = nil, want non-nil")
	}
}

// -----------------------------------------------------------------------------
// Options helper tests (hermetic).
// -----------------------------------------------------------------------------
//
// These tests validate minimal, deliberate coercion behavior and defaults. This
// protects against accidental changes in helper semantics that would silently
// alter import behavior across the application.

func TestOptions_String_Bool_Int_DefaultsAndCoercion(t *testing.T) {
	t.Parallel()

	o := Options{
		"s": "hello",
		"b": true,
		"i": float64(42), // encoding/json decodes numbers as float64
	}

	// String
	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q, want hello", got)
	}
	if got := o.String("missing", "def"); got != "def" {
		t.Fatalf("String(missing) = %q, want def", got)
	}

	// Bool
	if got := o.Bool("b", false); got != true {
		t.Fatalf("Bool(b) = %v, want true", got)
	}
	if got := o.Bool("missing", true); got != true {
		t.Fatalf("Bool(missing) = %v, want true", got)
	}

	// Int (float64 → int)
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d, want 42", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Fatalf("Int(missing) = %d, want 7", got)
	}

	// Wrong types fall back to defaults.
	o["wrong"] = []any{"x"}
	if got := o.String("wrong", "def"); got != "def" {
		t.Fatalf("String(wrong type) = %q, want def", got)
	}
	if got := o.Int("s", 5); got != 5 {
		t.Fatalf("Int(string value) = %d, want 5", got)
	}
}

func TestOptions_Any(t *testing.T) {
	t.Parallel()

	o := Options{
		"nested": map[string]any{
			"k": "v",
		},
	}

	// Any returns raw nested values for callers to unmarshal later.
	anyv := o.Any("nested")
	m, ok := anyv.(map[string]any)
	if !ok || m["k"] != "v" {
		t.Fatalf("Any(nested) = %#v, want map with k=v", anyv)
	}
	if o.Any("missing") != nil {
		t.Fatalf("Any(missing) should be nil when key absent")
	}
}

// -----------------------------------------------------------------------------
// Options.UnmarshalJSON behavior tests
// -----------------------------------------------------------------------------
//
// These tests ensure that decoding Options from JSON yields a non-nil, empty
// map when the field is missing or explicitly null. This avoids nil-checks at
// call sites and is a deliberate design choice for simplicity.

func TestOptions_UnmarshalJSON_NullYieldsEmptyMap(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"ingest"`
	}

	// ingest is explicitly null → non-nil, empty Options.
	const jsNull = `{"ingest": null}`
	var w wrapper
	if err := json.Unmarshal([]byte(jsNull), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts == nil || len(w.Opts) != 0 {
		t.Fatalf("Opts after null unmarshal = %#v, want non-nil empty map", w.Opts)
	}
}

func TestOptions_UnmarshalJSON_ObjectDecodesAsMap(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"ingest"`
	}

	const jsObj = `{"ingest": {"a":"x","b":true,"n": 3}}`
	var w wrapper
	if err := json.Unmarshal([]byte(jsObj), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if w.Opts.String("a", "") != "x" {
		t.Fatalf("Opts.String(a) = %q, want x", w.Opts.String("a", ""))
	}
	if w.Opts.Bool("b", false) != true {
		t.Fatalf("Opts.Bool(b) = %v, want true", w.Opts.Bool("b", false))
	}
	if w.Opts.Int("n", 0) != 3 {
		t.Fatalf("Opts.Int(n) = %d, want 3", w.Opts.Int("n", 0))
	}
}
