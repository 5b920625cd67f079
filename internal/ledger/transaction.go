// Package ledger defines the transaction model shared by the import pipeline,
// the store, and the presentation surfaces.
package ledger

import (
	"strings"

	"github.com/google/uuid"
)

// Type is the canonical transaction direction.
type Type string

const (
	Credit Type = "Credit"
	Debit  Type = "Debit"
)

// ParseType normalizes a raw type value case-insensitively. It returns the
// canonical Type and whether the input was recognized. Surrounding whitespace
// is ignored.
func ParseType(raw string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "credit":
		return Credit, true
	case "debit":
		return Debit, true
	default:
		return "", false
	}
}

// Transaction is the sole persisted entity. Field names in JSON mirror the
// persisted blob layout (one array of these objects under a fixed key).
type Transaction struct {
	// ID is an opaque identifier, unique within the store. It comes from the
	// source data when present, otherwise it is generated.
	ID string `json:"id"`

	// Date is a YYYY-MM-DD string, passed through verbatim. No calendar
	// validation is applied.
	Date string `json:"date"`

	// Description is free text, trimmed.
	Description string `json:"description"`

	// Amount is a signed decimal amount. Every stored amount is finite.
	Amount float64 `json:"amount"`

	// Type is Credit or Debit.
	Type Type `json:"type"`

	// AccountNumber is passed through verbatim, trimmed.
	AccountNumber string `json:"accountNumber"`
}

// NewID generates a fallback transaction id for rows whose source id is
// absent or empty. Uniqueness is probabilistic, not enforced against the
// store; collision odds are accepted as negligible.
func NewID() string {
	return uuid.NewString()
}
