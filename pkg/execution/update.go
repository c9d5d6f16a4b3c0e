package execution

import (
	"fmt"
	"storedb/pkg/concurrency/lock"
	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/primitives"
	"storedb/pkg/tables"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

// Update is a mutating operator: every tuple its child produces is assumed
// already matched by the caller's predicate. Update applies a fixed set of
// field assignments to each one and writes the result back — implemented,
// like the reference update operator, as a delete of the old row followed
// by an insert of the new one rather than an in-place byte rewrite, since a
// field's new value may not be the same size as its old one. Every
// secondary index keyed on a changed field is updated to match.
type Update struct {
	base         *BaseIterator
	txn          *transaction.Transaction
	locks        *lock.Manager
	tableID      int
	tableManager *tables.TableManager
	child        DbIterator
	fieldUpdates map[int]types.Field
	resultDesc   *tuple.TupleDescription
	done         bool
}

// NewUpdate builds an Update operator applying fieldUpdates to every tuple
// child produces in the table identified by tableID.
func NewUpdate(txn *transaction.Transaction, locks *lock.Manager, tableID int, tm *tables.TableManager, child DbIterator, fieldUpdates map[int]types.Field) (*Update, error) {
	if txn == nil {
		return nil, fmt.Errorf("txn cannot be nil")
	}
	if locks == nil {
		return nil, fmt.Errorf("locks cannot be nil")
	}
	if tm == nil {
		return nil, fmt.Errorf("tm cannot be nil")
	}
	if child == nil {
		return nil, fmt.Errorf("child cannot be nil")
	}
	if len(fieldUpdates) == 0 {
		return nil, fmt.Errorf("fieldUpdates cannot be empty")
	}

	resultDesc, err := tuple.NewTupleDesc([]types.Type{types.Int64Type}, []string{"count"})
	if err != nil {
		return nil, err
	}

	upd := &Update{
		txn:          txn,
		locks:        locks,
		tableID:      tableID,
		tableManager: tm,
		child:        child,
		fieldUpdates: fieldUpdates,
		resultDesc:   resultDesc,
	}
	upd.base = NewBaseIterator(upd.readNext)
	return upd, nil
}

func (upd *Update) Open() error {
	if err := upd.child.Open(); err != nil {
		return err
	}
	upd.base.MarkOpened()
	return nil
}

func (upd *Update) Close() error {
	_ = upd.child.Close()
	return upd.base.Close()
}

// Rewind is not supported: re-running an update over an already-updated
// child would apply the assignment twice.
func (upd *Update) Rewind() error {
	return fmt.Errorf("update cannot be rewound")
}

func (upd *Update) GetTupleDesc() *tuple.TupleDescription { return upd.resultDesc }

func (upd *Update) HasNext() (bool, error) { return upd.base.HasNext() }

func (upd *Update) Next() (*tuple.Tuple, error) { return upd.base.Next() }

func (upd *Update) readNext() (*tuple.Tuple, error) {
	if upd.done {
		return nil, nil
	}
	upd.done = true

	table := primitives.NewTableIDFromUint64(uint64(upd.tableID))
	if err := upd.locks.Acquire(upd.txn, lock.OnTable(table), lock.IX); err != nil {
		return nil, fmt.Errorf("acquiring table lock: %w", err)
	}

	heapFile, err := heapFileFor(upd.tableManager, upd.tableID)
	if err != nil {
		return nil, err
	}

	indexes, err := upd.tableManager.GetIndexes(upd.tableID)
	if err != nil {
		return nil, err
	}

	var count int64
	for {
		hasNext, err := upd.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		oldTuple, err := upd.child.Next()
		if err != nil {
			return nil, err
		}
		if oldTuple.RecordID == nil {
			return nil, fmt.Errorf("cannot update row %d: no record id", count)
		}

		if err := upd.locks.Acquire(upd.txn, lock.OnRecord(table, oldTuple.RecordID), lock.X); err != nil {
			return nil, fmt.Errorf("acquiring record lock: %w", err)
		}

		preImage, err := oldTuple.Clone()
		if err != nil {
			return nil, err
		}
		preImage.RecordID = oldTuple.RecordID

		newTuple, err := oldTuple.WithUpdatedFields(upd.fieldUpdates)
		if err != nil {
			return nil, fmt.Errorf("applying update to row %d: %w", count, err)
		}

		if err := maintainIndexesOnDelete(indexes, oldTuple); err != nil {
			return nil, fmt.Errorf("removing stale index entries for row %d: %w", count, err)
		}
		if err := deleteFromHeap(heapFile, oldTuple); err != nil {
			return nil, fmt.Errorf("deleting old version of row %d: %w", count, err)
		}
		if err := insertIntoHeap(heapFile, newTuple); err != nil {
			return nil, fmt.Errorf("inserting new version of row %d: %w", count, err)
		}
		if err := upd.locks.Acquire(upd.txn, lock.OnRecord(table, newTuple.RecordID), lock.X); err != nil {
			return nil, fmt.Errorf("acquiring new record lock: %w", err)
		}
		if err := maintainIndexesOnInsert(indexes, newTuple); err != nil {
			return nil, fmt.Errorf("adding index entries for row %d: %w", count, err)
		}

		newRID := newTuple.RecordID
		upd.txn.RecordWrite(transaction.UpdateWrite, func() error {
			undoNew, err := newTuple.Clone()
			if err != nil {
				return err
			}
			undoNew.RecordID = newRID
			if err := maintainIndexesOnDelete(indexes, undoNew); err != nil {
				return err
			}
			if err := deleteFromHeap(heapFile, undoNew); err != nil {
				return err
			}
			if err := insertIntoHeap(heapFile, preImage); err != nil {
				return err
			}
			return maintainIndexesOnInsert(indexes, preImage)
		})

		count++
	}

	result := tuple.NewTuple(upd.resultDesc)
	if err := result.SetField(0, types.NewInt64Field(count)); err != nil {
		return nil, err
	}
	return result, nil
}
