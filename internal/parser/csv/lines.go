package csv

import "strings"

// LineScanner reassembles complete logical lines from text chunks whose
// boundaries fall anywhere in the source, not necessarily on line breaks.
// It keeps a rolling leftover fragment between chunks, the same carry idea a
// streaming rewriter uses to match patterns across block boundaries.
//
// A LineScanner serves exactly one import; start a fresh one per run.
type LineScanner struct {
	leftover string
}

// NewLineScanner returns a scanner with an empty carry.
func NewLineScanner() *LineScanner { return &LineScanner{} }

// Split consumes the next chunk and returns the complete lines it finishes.
// Both \n and \r\n terminators are accepted. The final split element is
// always retained as the new leftover, even when the chunk happens to end on
// a line break; it is only proven complete by the next chunk. Lines are
// trimmed and blank lines are dropped.
func (s *LineScanner) Split(chunk string) []string {
	text := s.leftover + chunk
	parts := strings.Split(text, "\n")

	s.leftover = parts[len(parts)-1]
	parts = parts[:len(parts)-1]

	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, "\r")
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}

// Finish returns the residual leftover at true end-of-input, trimmed, and
// whether it is non-blank. The default pipeline discards this residue (a
// trailing line without a terminating newline is dropped); callers opt in to
// flushing it via the flush_trailing ingest option.
func (s *LineScanner) Finish() (string, bool) {
	line := strings.TrimSpace(strings.TrimSuffix(s.leftover, "\r"))
	s.leftover = ""
	return line, line != ""
}
