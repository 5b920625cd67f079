// Package blob defines the persistence contract for the transaction store:
// a single opaque byte blob under a fixed logical key, read once at startup
// and rewritten wholesale on every successful import and on every edit.
//
// Concrete backends live in sibling packages (fileblob, sqliteblob, pgblob)
// so the store depends only on this interface and the rest of the program
// stays decoupled from any particular storage engine.
package blob

import "context"

// Key is the fixed logical key the ledger blob lives under.
const Key = "banking_transactions"

// Store persists the ledger blob.
type Store interface {
	// Load returns the stored blob. ok is false when nothing has been
	// persisted yet; that is not an error.
	Load(ctx context.Context) (data []byte, ok bool, err error)

	// Save replaces the stored blob. Backends with a capacity limit return
	// an error wrapping ErrQuotaExceeded when data does not fit; the previous
	// blob must remain intact in that case.
	Save(ctx context.Context, data []byte) error

	Close() error
}
