package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"bankledger/internal/ledger"
	csvparser "bankledger/internal/parser/csv"
)

// buildRecord maps one tokenized data line onto a Transaction via the header
// indexes. It is a pure transform producing zero or one record per line: the
// returned reason is empty on success and names the rejection otherwise.
//
// Rejection rules:
//   - field count differs from the header's column count
//   - amount does not parse to a finite number
//   - type is not credit/debit (case-insensitive)
//
// The id defaults to a generated token when the source field is absent or
// empty after trimming.
func buildRecord(fields []string, hdr csvparser.Header) (ledger.Transaction, string) {
	if len(fields) != hdr.Columns {
		return ledger.Transaction{}, fmt.Sprintf(
			"field count %d does not match header count %d", len(fields), hdr.Columns)
	}

	amountRaw := fieldAt(fields, hdr.Amount)
	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ledger.Transaction{}, fmt.Sprintf("invalid amount %q", amountRaw)
	}

	typ, ok := ledger.ParseType(fieldAt(fields, hdr.Type))
	if !ok {
		return ledger.Transaction{}, fmt.Sprintf(
			"invalid transaction type %q", fieldAt(fields, hdr.Type))
	}

	id := strings.TrimSpace(fieldAt(fields, hdr.ID))
	if id == "" {
		id = ledger.NewID()
	}

	return ledger.Transaction{
		ID:            id,
		Date:          fieldAt(fields, hdr.Date),
		Description:   fieldAt(fields, hdr.Description),
		Amount:        amount,
		Type:          typ,
		AccountNumber: fieldAt(fields, hdr.Account),
	}, ""
}

// fieldAt returns fields[idx], or "" when the column is absent (-1) or the
// row is too short. Missing optional columns degrade to empty values.
func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
