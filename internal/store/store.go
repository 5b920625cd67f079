// Package store owns the in-memory transaction sequence and its persistence.
// It is an explicit owned-state object: constructed once at startup, loaded
// from the blob backend, and passed by handle to every consumer. All
// mutations are whole-value swaps, so readers always observe either the old
// or the new complete sequence, never a partial one.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"bankledger/internal/ledger"
	"bankledger/internal/metrics"
	"bankledger/internal/store/blob"
)

// ErrNotFound is returned by UpdateOne and DeleteOne when no transaction has
// the given id.
var ErrNotFound = errors.New("transaction not found")

// Store is the single source of truth for all transaction readers.
type Store struct {
	blob blob.Store

	mu   sync.RWMutex
	txs  []ledger.Transaction
	subs map[int]chan []ledger.Transaction
	next int
}

// Open loads the persisted ledger (if any) and returns a ready Store.
func Open(ctx context.Context, b blob.Store) (*Store, error) {
	s := &Store{
		blob: b,
		subs: make(map[int]chan []ledger.Transaction),
	}

	data, ok, err := b.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	if ok {
		var txs []ledger.Transaction
		if err := json.Unmarshal(data, &txs); err != nil {
			return nil, fmt.Errorf("store: decode persisted ledger: %w", err)
		}
		s.txs = txs
	}
	return s, nil
}

// Snapshot returns a copy of the current transaction sequence.
func (s *Store) Snapshot() []ledger.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Get returns the transaction with the given id.
func (s *Store) Get(id string) (ledger.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.txs {
		if t.ID == id {
			return t, true
		}
	}
	return ledger.Transaction{}, false
}

// Any reports whether the store holds at least one transaction. Views gated
// on "any records exist" use this.
func (s *Store) Any() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs) > 0
}

// Changes subscribes to mutations. Each successful ReplaceAll, UpdateOne, or
// DeleteOne delivers the new full sequence. There is no replay: subscribers
// receive only future changes and should call Snapshot for present state. A
// slow subscriber that has not drained the previous notification misses the
// intermediate value and will observe the latest one on its next receive.
// The returned cancel function must be called to release the subscription.
func (s *Store) Changes() (<-chan []ledger.Transaction, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan []ledger.Transaction, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// ReplaceAll persists txs as the entire new store and, only if persistence
// succeeds, swaps it in and notifies subscribers. On any persistence error
// (including quota) both the in-memory and the persisted sequence are left
// exactly as they were: the failed import is fully discarded.
func (s *Store) ReplaceAll(ctx context.Context, txs []ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, txs)
}

// UpdateOne replaces the stored transaction with the same id.
func (s *Store) UpdateOne(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.txs {
		if t.ID == tx.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("store: update %q: %w", tx.ID, ErrNotFound)
	}

	next := make([]ledger.Transaction, len(s.txs))
	copy(next, s.txs)
	next[idx] = tx
	return s.commit(ctx, next)
}

// DeleteOne removes the transaction with the given id.
func (s *Store) DeleteOne(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]ledger.Transaction, 0, len(s.txs))
	found := false
	for _, t := range s.txs {
		if t.ID == id {
			found = true
			continue
		}
		next = append(next, t)
	}
	if !found {
		return fmt.Errorf("store: delete %q: %w", id, ErrNotFound)
	}
	return s.commit(ctx, next)
}

// Close releases the blob backend and all subscriptions.
func (s *Store) Close() error {
	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
	return s.blob.Close()
}

// commit persists txs and swaps it in. Caller holds s.mu.
func (s *Store) commit(ctx context.Context, txs []ledger.Transaction) error {
	if txs == nil {
		txs = []ledger.Transaction{}
	}

	data, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("store: encode ledger: %w", err)
	}
	if err := s.blob.Save(ctx, data); err != nil {
		return fmt.Errorf("store: persist: %w", err)
	}
	metrics.RecordStoreWrite("ledger", 1)

	s.txs = txs
	for _, ch := range s.subs {
		snap := make([]ledger.Transaction, len(txs))
		copy(snap, txs)
		select {
		case ch <- snap:
		default:
			// Drop the stale pending value, then deliver the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	return nil
}
