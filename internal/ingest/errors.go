package ingest

import "errors"

// Terminal error kinds surfaced on an import's final event. Row-level
// validation failures are deliberately not errors: they are silent per-row
// rejections, and an import can succeed with zero records.
var (
	// ErrUnsupportedFormat is returned by callers gating on the declared file
	// type before the controller runs at all.
	ErrUnsupportedFormat = errors.New("unsupported file format: expected text/csv")

	// ErrRead wraps a source read failure mid-stream.
	ErrRead = errors.New("error reading file")

	// ErrParse wraps an unexpected failure during decode/tokenize/build.
	ErrParse = errors.New("unexpected error while parsing the file")
)
