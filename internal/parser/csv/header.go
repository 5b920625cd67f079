package csv

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Logical column names, matched case-insensitively against the header row in
// any physical order.
const (
	ColID          = "transaction id"
	ColDate        = "date"
	ColDescription = "description"
	ColAmount      = "amount"
	ColType        = "transaction type"
	ColAccount     = "account number"
)

// Header maps the logical columns onto physical field indexes for one import.
// An absent column is -1; downstream consumers degrade per column instead of
// failing the import.
type Header struct {
	ID          int
	Date        int
	Description int
	Amount      int
	Type        int
	Account     int

	// Columns is the physical field count of the header row. Data rows with a
	// different width are rejected.
	Columns int
}

// ResolveHeader parses the first non-blank line of an import as column
// headers. Lookup is case-insensitive; accented header text is folded to its
// ASCII base form first so exports from localized banking tools still match.
func ResolveHeader(line string) Header {
	fields := stripBOM(Tokenize(line))

	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		name := foldHeader(f)
		if _, dup := byName[name]; !dup {
			byName[name] = i
		}
	}

	at := func(name string) int {
		if i, ok := byName[name]; ok {
			return i
		}
		return -1
	}

	return Header{
		ID:          at(ColID),
		Date:        at(ColDate),
		Description: at(ColDescription),
		Amount:      at(ColAmount),
		Type:        at(ColType),
		Account:     at(ColAccount),
		Columns:     len(fields),
	}
}

// foldHeader lower-cases a header cell after stripping diacritics.
// Decompose, remove nonspacing marks, recompose.
func foldHeader(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
