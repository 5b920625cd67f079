// Package config provides configuration models and helpers for the ledger
// application.
//
// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a decoded Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Config.
//
// Path is a dotted path into the config (e.g. "store.kind",
// "metrics.pushgateway_url"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateConfig performs static validation / linting of a Config.
//
// It does not mutate the config. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	cfg, err := config.Load(path)
//	if err != nil { ... }
//	issues := config.ValidateConfig(cfg)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidateConfig(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and log lines will use the default label",
		})
	}
	issues = append(issues, validateStore(c.Store)...)
	issues = append(issues, validateIngest(c.Ingest)...)
	issues = append(issues, validateServer(c.Server)...)
	issues = append(issues, validateMetrics(c.Metrics)...)

	return issues
}

// validateStore validates the store configuration.
func validateStore(s StoreConfig) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "store.kind",
			Message:  "store.kind must not be empty",
		})
		return issues
	}

	// Known store kinds. Unknown kinds are warnings (for forward compatibility).
	known := map[string]struct{}{
		"file":     {},
		"sqlite":   {},
		"postgres": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "store.kind",
			Message:  fmt.Sprintf("unknown store kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	// Kind-specific checks.
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "store.path",
				Message:  "file store requires a non-empty path",
			})
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(s.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "store.dsn",
				Message:  fmt.Sprintf("%s store requires a non-empty dsn", s.Kind),
			})
		}
	}

	if s.MaxBytes < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "store.max_bytes",
			Message:  "max_bytes must not be negative",
		})
	}

	return issues
}

// validateIngest validates the ingest options bag for obvious
// misconfigurations (kept intentionally light; unknown keys are allowed).
func validateIngest(o Options) []Issue {
	var issues []Issue

	if o == nil {
		return issues
	}
	if n := o.Int("chunk_size", 0); n < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "ingest.chunk_size",
			Message:  "chunk_size must not be negative",
		})
	} else if n > 0 && n < 4096 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "ingest.chunk_size",
			Message:  fmt.Sprintf("chunk_size=%d is very small; imports will issue many reads", n),
		})
	}
	if v, ok := o["flush_trailing"]; ok {
		if _, isBool := v.(bool); !isBool {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "ingest.flush_trailing",
				Message:  "flush_trailing must be a boolean",
			})
		}
	}

	return issues
}

// validateServer validates the HTTP server configuration.
func validateServer(s ServerConfig) []Issue {
	var issues []Issue

	// Addr is optional; serve falls back to a default. A bare port without a
	// colon is the one common mistake worth catching.
	addr := strings.TrimSpace(s.Addr)
	if addr != "" && !strings.Contains(addr, ":") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "server.addr",
			Message:  fmt.Sprintf("addr %q is missing a port separator; use e.g. %q", addr, ":8080"),
		})
	}

	return issues
}

// validateMetrics validates the metrics backend configuration.
func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue

	backend := strings.TrimSpace(m.Backend)
	known := map[string]struct{}{
		"":           {},
		"none":       {},
		"prometheus": {},
		"datadog":    {},
	}
	if _, ok := known[backend]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", backend),
		})
	}

	switch backend {
	case "prometheus":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prometheus backend requires pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.statsd_addr",
				Message:  "datadog backend requires statsd_addr",
			})
		}
	}

	return issues
}
