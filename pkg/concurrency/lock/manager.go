// Package lock implements multi-granularity locking for storedb's
// concurrency control layer.
//
// # Overview
//
// Five lock modes are supported: IS, IX, S, SIX and X (see [LockMode]).
// A transaction locks a whole table directly with S or X, or announces
// intent to lock records beneath it with IS/IX before locking those
// records individually. [compatible] encodes the standard multi-granularity
// compatibility matrix; [joinMode] computes both a resource's group mode
// from its granted requests and the mode a transaction's own in-place lock
// upgrade must reach.
//
// # Resources and requests
//
// Every lockable resource ([DataID] — a table, or a single record within a
// table) is represented internally by a [resourceEntry]: the set of
// currently granted requests, a FIFO queue of requests still waiting, the
// resource's group mode (the join of every granted request's mode), and a
// condition variable new requests wait on. All condition variables share
// the manager's single mutex as their locker, so a broadcast on any one of
// them is always made and observed under that same mutex.
//
// # Acquisition
//
// [Manager.Acquire] follows the standard strict two-phase locking
// discipline: a transaction may only acquire locks while growing, moves to
// growing on its first acquisition, and self-aborts if it tries to acquire
// anything after it has started shrinking. READ_UNCOMMITTED transactions
// are refused any shared-family lock (IS, S, SIX) — they only ever take X,
// matching their read-dirty-data semantics.
//
// If the transaction already holds some mode on the resource, Acquire
// computes the join of the held and requested modes and, if that is
// stronger than what it already holds, waits for the join to become
// compatible with every OTHER transaction's granted mode before upgrading
// in place — bypassing the FIFO queue, since an upgrade is not a new
// request for the resource. Otherwise it enqueues a fresh request at the
// tail of the queue and waits until that request reaches the head of the
// queue and is compatible with the resource's current group mode.
//
// # Release
//
// [Manager.Release] and [Manager.ReleaseAll] move the transaction to the
// shrinking phase and drop its granted request on the named resource(s),
// recomputing the group mode as the join of whatever requests remain
// granted and waking every waiter so it can re-check whether it can now
// proceed.
//
// # No deadlock detection
//
// This manager performs no cycle detection over the wait-for graph. A
// genuine circular wait between transactions blocks every member
// permanently; avoiding that is the caller's responsibility (consistent
// lock-acquisition ordering), not this package's.
package lock

import (
	"fmt"
	"storedb/pkg/dblog"
	"storedb/pkg/primitives"
	"sync"
)

// TxnHandle is the slice of transaction state the lock manager needs to
// enforce strict two-phase locking and isolation-level restrictions. It is
// satisfied structurally by *transaction.Transaction without this package
// importing the transaction package, which itself imports lock to release
// locks on commit and abort.
type TxnHandle interface {
	TxnID() *primitives.TransactionID
	Isolation() primitives.IsolationLevel
	Phase() primitives.TransactionState
	SetPhase(primitives.TransactionState)
}

// request is one transaction's claim, granted or still queued, on a
// resource.
type request struct {
	txn  TxnHandle
	mode LockMode
}

// resourceEntry is the per-resource bookkeeping: {queue, group_mode, condvar}.
type resourceEntry struct {
	granted   map[int64]*request
	waiting   []*request
	groupMode LockMode
	cond      *sync.Cond
}

func newResourceEntry(mu *sync.Mutex) *resourceEntry {
	return &resourceEntry{
		granted:   make(map[int64]*request),
		groupMode: NL,
		cond:      sync.NewCond(mu),
	}
}

// otherGrantedMode returns the join of every granted request's mode except
// the one held by txnID, used to test whether an upgrade or a fresh grant
// would conflict with anyone other than the requester itself.
func (r *resourceEntry) otherGrantedMode(txnID int64) LockMode {
	mode := NL
	for id, req := range r.granted {
		if id == txnID {
			continue
		}
		mode = joinMode(mode, req.mode)
	}
	return mode
}

func (r *resourceEntry) recomputeGroupMode() {
	mode := NL
	for _, req := range r.granted {
		mode = joinMode(mode, req.mode)
	}
	r.groupMode = mode
}

// Manager grants and releases locks on DataIDs according to the
// multi-granularity compatibility rules. The zero value is not usable; use
// [NewManager].
type Manager struct {
	mu           sync.Mutex
	resources    map[DataID]*resourceEntry
	txnResources map[int64][]DataID
}

// NewManager constructs an empty lock manager.
func NewManager() *Manager {
	return &Manager{
		resources:    make(map[DataID]*resourceEntry),
		txnResources: make(map[int64][]DataID),
	}
}

// ErrAborted is returned by Acquire when the calling transaction was
// forced into the aborted state as a side effect of the request itself
// (isolation violation, or a lock requested after shrinking has begun).
type ErrAborted struct {
	TxnID  int64
	Reason string
}

func (e *ErrAborted) Error() string {
	return fmt.Sprintf("transaction %d aborted: %s", e.TxnID, e.Reason)
}

func isSharedFamily(mode LockMode) bool {
	return mode == IS || mode == S || mode == SIX
}

// Acquire grants txn the requested mode on id, blocking until it can be
// granted. It returns an error only when txn is forced to abort as a
// consequence of making this request.
func (m *Manager) Acquire(txn TxnHandle, id DataID, mode LockMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if txn.Isolation() == primitives.ReadUncommitted && isSharedFamily(mode) {
		txn.SetPhase(primitives.Aborted)
		dblog.WithLock(txn.TxnID().ID(), id.String()).Warn("lock request rejected: READ_UNCOMMITTED cannot take shared-family locks")
		return &ErrAborted{TxnID: txn.TxnID().ID(), Reason: "READ_UNCOMMITTED transactions cannot take shared-family locks"}
	}
	if txn.Phase() == primitives.Shrinking {
		txn.SetPhase(primitives.Aborted)
		dblog.WithLock(txn.TxnID().ID(), id.String()).Warn("lock request rejected: already shrinking")
		return &ErrAborted{TxnID: txn.TxnID().ID(), Reason: "lock requested after shrinking phase began"}
	}
	if txn.Phase() == primitives.Default {
		txn.SetPhase(primitives.Growing)
	}

	res, ok := m.resources[id]
	if !ok {
		res = newResourceEntry(&m.mu)
		m.resources[id] = res
	}

	txnID := txn.TxnID().ID()

	if existing, held := res.granted[txnID]; held {
		required := joinMode(existing.mode, mode)
		if required == existing.mode {
			return nil
		}
		for !compatible(res.otherGrantedMode(txnID), required) {
			res.cond.Wait()
		}
		existing.mode = required
		res.recomputeGroupMode()
		res.cond.Broadcast()
		return nil
	}

	req := &request{txn: txn, mode: mode}
	res.waiting = append(res.waiting, req)
	for {
		if res.waiting[0] == req && compatible(res.groupMode, mode) {
			break
		}
		res.cond.Wait()
	}
	res.waiting = res.waiting[1:]
	res.granted[txnID] = req
	res.recomputeGroupMode()
	m.txnResources[txnID] = append(m.txnResources[txnID], id)
	res.cond.Broadcast()
	return nil
}

// Release drops txn's lock on a single resource, if it holds one.
func (m *Manager) Release(txn TxnHandle, id DataID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn.SetPhase(primitives.Shrinking)
	m.releaseLocked(txn.TxnID().ID(), id)
}

// ReleaseAll drops every lock txn holds, as done at commit or abort.
func (m *Manager) ReleaseAll(txn TxnHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn.SetPhase(primitives.Shrinking)
	txnID := txn.TxnID().ID()
	ids := m.txnResources[txnID]
	for _, id := range ids {
		m.releaseLocked(txnID, id)
	}
	delete(m.txnResources, txnID)
}

func (m *Manager) releaseLocked(txnID int64, id DataID) {
	res, ok := m.resources[id]
	if !ok {
		return
	}
	if _, held := res.granted[txnID]; !held {
		return
	}
	delete(res.granted, txnID)
	res.recomputeGroupMode()
	res.cond.Broadcast()
}
