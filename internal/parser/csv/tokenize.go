// Package csv implements the streaming CSV primitives used by the import
// pipeline: a lenient field tokenizer, a chunk-boundary line reassembler, and
// a case-insensitive header resolver.
//
// The tokenizer is hand-rolled rather than delegated to encoding/csv because
// the required semantics differ: every field is whitespace-trimmed, quotes may
// open mid-field, and unbalanced quotes terminate the scan in whatever mode it
// is in instead of raising an error.
package csv

import "strings"

// Tokenize splits one logical CSV line into ordered field values.
//
// Rules:
//   - `""` inside a quoted region emits one literal quote.
//   - A lone `"` toggles quoted mode and emits nothing.
//   - `,` outside quotes closes the current field.
//   - Fields are trimmed of surrounding whitespace.
//   - The final field is always emitted, so every line yields at least one
//     field. Unbalanced quotes are not an error.
func Tokenize(line string) []string {
	fields := make([]string, 0, 8)
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && i+1 < len(line) && line[i+1] == '"' && inQuotes:
			cur.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}
