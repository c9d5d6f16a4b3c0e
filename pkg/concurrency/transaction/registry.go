package transaction

import (
	"fmt"
	"storedb/pkg/concurrency/lock"
	"storedb/pkg/dblog"
	"storedb/pkg/primitives"
	"sync"
)

// Registry tracks every live transaction and owns the lock manager they
// share. It is the single entry point callers use to begin, commit or
// abort a transaction.
type Registry struct {
	locks *lock.Manager

	mu   sync.RWMutex
	live map[int64]*Transaction
}

// NewRegistry constructs an empty registry backed by locks. Every
// transaction the registry begins acquires and releases locks through the
// same manager, so two registries sharing one manager would interleave
// correctly but a registry never shares state with another registry.
func NewRegistry(locks *lock.Manager) *Registry {
	return &Registry{
		locks: locks,
		live:  make(map[int64]*Transaction),
	}
}

// Locks returns the lock manager this registry's transactions use, for
// callers (executors) that need to acquire locks directly.
func (r *Registry) Locks() *lock.Manager {
	return r.locks
}

// Begin starts a new transaction at the given isolation level and
// registers it as live.
func (r *Registry) Begin(isolation primitives.IsolationLevel) *Transaction {
	txn := newTransaction(isolation)

	r.mu.Lock()
	r.live[txn.id.ID()] = txn
	r.mu.Unlock()

	dblog.WithTx(txn.id.ID()).Info("transaction begun")
	return txn
}

// Get looks up a live transaction by id.
func (r *Registry) Get(id int64) (*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txn, ok := r.live[id]
	if !ok {
		return nil, fmt.Errorf("transaction %d not found", id)
	}
	return txn, nil
}

// Commit commits a transaction and removes it from the live set.
func (r *Registry) Commit(txn *Transaction) error {
	if err := txn.Commit(r.locks); err != nil {
		return err
	}
	r.forget(txn)
	return nil
}

// Abort rolls a transaction back and removes it from the live set.
func (r *Registry) Abort(txn *Transaction) error {
	if err := txn.Abort(r.locks); err != nil {
		return err
	}
	r.forget(txn)
	return nil
}

func (r *Registry) forget(txn *Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, txn.id.ID())
}

// Active returns the ids of every currently live transaction.
func (r *Registry) Active() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.live))
	for id := range r.live {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live transactions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}
