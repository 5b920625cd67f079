package ingest

import "bankledger/internal/ledger"

// Event is one message in an import's ordered event stream: zero or more
// progress-only events followed by exactly one terminal event carrying either
// the parsed transactions or an error, never both. No event follows the
// terminal one; the channel is closed after it.
type Event struct {
	// Progress is 0..100, non-decreasing across the stream. Terminal events
	// always carry 100.
	Progress int

	// Transactions is non-nil only on a successful terminal event. It may be
	// empty: every row of an import can be rejected without the import
	// failing.
	Transactions []ledger.Transaction

	// Err is non-nil only on a failed terminal event.
	Err error

	// Rejected is the count of rows dropped by per-row validation. It is an
	// optional diagnostic set on the terminal event; rejection never fails
	// the import.
	Rejected int

	// RejectSamples holds the first few rejection reasons for diagnostics.
	RejectSamples []string
}

// Terminal reports whether e is the stream's final event.
func (e Event) Terminal() bool {
	return e.Err != nil || e.Transactions != nil
}
