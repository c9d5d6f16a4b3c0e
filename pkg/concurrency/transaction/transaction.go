// Package transaction implements storedb's transaction lifecycle: begin,
// commit and abort, layered on top of the multi-granularity lock manager in
// storedb/pkg/concurrency/lock.
//
// A Transaction tracks a write_set: one entry per mutating operation it has
// performed, each carrying an undo closure that reverses the operation
// using its pre-image. Commit simply releases every lock the transaction
// holds. Abort walks the write_set in reverse (LIFO) order, running each
// undo closure before releasing locks, so that if INSERT, DELETE and UPDATE
// are undone exactly in the reverse order they were applied, the operations
// they guarded are fully reversed: an INSERT is undone by deleting the row
// it created, a DELETE is undone by re-inserting its pre-image, and an
// UPDATE is undone by writing its pre-image back over the current value.
//
// The package never imports storedb/pkg/execution or storedb/pkg/storage:
// it has no idea what an undo closure does, only that running every one of
// them in order restores the row set to what it was before the transaction
// began. The executors that perform INSERT/DELETE/UPDATE are responsible
// for recording the matching undo closure via [Transaction.RecordWrite].
package transaction

import (
	"fmt"
	"storedb/pkg/concurrency/lock"
	"storedb/pkg/dblog"
	"storedb/pkg/primitives"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WriteKind labels a write_set entry for logging and introspection. The
// undo behaviour itself lives in the entry's closure, not in a switch over
// this value.
type WriteKind int

const (
	InsertWrite WriteKind = iota
	DeleteWrite
	UpdateWrite
)

func (k WriteKind) String() string {
	switch k {
	case InsertWrite:
		return "INSERT"
	case DeleteWrite:
		return "DELETE"
	case UpdateWrite:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// writeRecord is one entry of a transaction's write_set.
type writeRecord struct {
	kind WriteKind
	undo func() error
}

// Transaction is a single unit-of-work: an isolation level fixed at begin
// time, a two-phase-locking state shared with the lock manager, and a
// write_set of undo closures recorded as the transaction mutates data.
type Transaction struct {
	id        *primitives.TransactionID
	isolation primitives.IsolationLevel

	mu        sync.Mutex
	state     primitives.TransactionState
	writeSet  []writeRecord
	startTime time.Time
	endTime   time.Time
}

func newTransaction(isolation primitives.IsolationLevel) *Transaction {
	return &Transaction{
		id:        primitives.NewTransactionID(),
		isolation: isolation,
		state:     primitives.Default,
		startTime: time.Now(),
	}
}

// TxnID satisfies lock.TxnHandle.
func (t *Transaction) TxnID() *primitives.TransactionID {
	return t.id
}

// Isolation satisfies lock.TxnHandle.
func (t *Transaction) Isolation() primitives.IsolationLevel {
	return t.isolation
}

// Phase satisfies lock.TxnHandle.
func (t *Transaction) Phase() primitives.TransactionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetPhase satisfies lock.TxnHandle.
func (t *Transaction) SetPhase(s primitives.TransactionState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
}

// RecordWrite appends an undo closure to the write_set. Executors call this
// immediately after each INSERT, DELETE or UPDATE they perform, passing a
// closure that reverses exactly that one operation using the pre-image it
// captured before mutating storage.
func (t *Transaction) RecordWrite(kind WriteKind, undo func() error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeSet = append(t.writeSet, writeRecord{kind: kind, undo: undo})
}

// WriteSetLen reports how many writes this transaction has recorded so
// far, mainly for tests and statistics.
func (t *Transaction) WriteSetLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.writeSet)
}

// Commit finalizes the transaction successfully: its write_set is kept (it
// is simply no longer needed for rollback), every lock it holds is
// released, and its state becomes Committed.
func (t *Transaction) Commit(locks *lock.Manager) error {
	t.mu.Lock()
	if t.state == primitives.Aborted || t.state == primitives.Committed {
		t.mu.Unlock()
		return fmt.Errorf("transaction %s cannot commit from state %s", t.id.String(), t.state.String())
	}
	t.mu.Unlock()

	locks.ReleaseAll(t)

	t.mu.Lock()
	t.state = primitives.Committed
	t.endTime = time.Now()
	writes := len(t.writeSet)
	t.mu.Unlock()

	dblog.WithTx(t.id.ID()).Info("transaction committed", zap.Int("writes", writes))
	return nil
}

// Abort rolls the transaction back: every write_set entry is undone in
// LIFO order (most recent write first), then every lock the transaction
// holds is released and its state becomes Aborted. The first undo error
// stops the rollback — storedb has no recovery path beyond that point, the
// same way the lock manager has no deadlock detection beyond blocking.
func (t *Transaction) Abort(locks *lock.Manager) error {
	t.mu.Lock()
	if t.state == primitives.Committed {
		t.mu.Unlock()
		return fmt.Errorf("transaction %s cannot abort after commit", t.id.String())
	}
	writes := make([]writeRecord, len(t.writeSet))
	copy(writes, t.writeSet)
	t.mu.Unlock()

	for i := len(writes) - 1; i >= 0; i-- {
		w := writes[i]
		if err := w.undo(); err != nil {
			dblog.WithTx(t.id.ID()).Error("rollback failed", zap.Error(err))
			return fmt.Errorf("rollback of %s write failed: %w", w.kind.String(), err)
		}
	}

	locks.ReleaseAll(t)

	t.mu.Lock()
	t.state = primitives.Aborted
	t.endTime = time.Now()
	t.mu.Unlock()

	dblog.WithTx(t.id.ID()).Info("transaction aborted", zap.Int("undone", len(writes)))
	return nil
}

// Duration reports how long the transaction has been (or was) running.
func (t *Transaction) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	end := t.endTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(t.startTime)
}

func (t *Transaction) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("Transaction %s [state=%s, isolation=%s, writes=%d]",
		t.id.String(), t.state.String(), t.isolation.String(), len(t.writeSet))
}
