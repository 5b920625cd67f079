// Package config defines the canonical, JSON-serializable configuration model
// for the ledger application. It is intentionally small, explicit, and
// dependency-free so that configurations can be loaded from disk (or other
// sources) and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in config
//     files under configs/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":    "household-2026",
//	  "store":  { "kind": "sqlite", "dsn": "file:ledger.db", "max_bytes": 5242880 },
//	  "ingest": { "chunk_size": 2097152, "flush_trailing": false },
//	  "server": { "addr": ":8080" },
//	  "metrics":{ "backend": "prometheus", "pushgateway_url": "http://pushgateway:9091" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Job names this deployment; it labels metrics and log lines.
	Job string `json:"job"`

	// Store describes where the transaction ledger is persisted.
	Store StoreConfig `json:"store"`

	// Ingest is a free-form options bag interpreted by the import pipeline.
	// Typical keys: chunk_size (int, bytes), flush_trailing (bool).
	Ingest Options `json:"ingest"`

	// Server configures the HTTP surface.
	Server ServerConfig `json:"server"`

	// Metrics selects and configures the metrics backend.
	Metrics MetricsConfig `json:"metrics"`
}

// StoreConfig selects the blob persistence backend for the ledger.
type StoreConfig struct {
	// Kind selects the store implementation: "file", "sqlite", or "postgres".
	Kind string `json:"kind"`

	// Path is the local filesystem path for the "file" kind.
	Path string `json:"path"`

	// DSN is the connection string for the "sqlite" and "postgres" kinds.
	DSN string `json:"dsn"`

	// MaxBytes caps the serialized ledger size. Zero means no quota.
	MaxBytes int64 `json:"max_bytes"`
}

// ServerConfig configures the HTTP server started by the serve command.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	// Backend selects the implementation: "", "none", "prometheus", or "datadog".
	Backend string `json:"backend"`

	// PushgatewayURL is the Prometheus Pushgateway base URL, required when
	// Backend is "prometheus".
	PushgatewayURL string `json:"pushgateway_url"`

	// StatsdAddr is the DogStatsD address, required when Backend is "datadog".
	StatsdAddr string `json:"statsd_addr"`
}

// Load reads and decodes a config file from disk.
func Load(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if cfg.Ingest == nil {
		cfg.Ingest = Options{}
	}
	return cfg, nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options is used for ingest tuning, where the shape is open-ended.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive). This is useful for retrieving nested
// configuration blocks that will be unmarshaled into a typed struct by the
// caller.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "ingest"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
