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

// Delete is a mutating operator: every tuple its child produces is assumed
// already matched by the caller's predicate and carries a valid RecordID,
// so Delete simply removes each one from its table's heap file. Unlike the
// reference delete operator this removes the row's key from every
// secondary index registered on the table before the physical delete,
// rather than leaving every index with a dangling entry pointing at a slot
// that no longer holds that row.
type Delete struct {
	base         *BaseIterator
	txn          *transaction.Transaction
	locks        *lock.Manager
	tableID      int
	tableManager *tables.TableManager
	child        DbIterator
	resultDesc   *tuple.TupleDescription
	done         bool
}

// NewDelete builds a Delete operator removing every tuple child produces
// from the table identified by tableID.
func NewDelete(txn *transaction.Transaction, locks *lock.Manager, tableID int, tm *tables.TableManager, child DbIterator) (*Delete, error) {
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

	resultDesc, err := tuple.NewTupleDesc([]types.Type{types.Int64Type}, []string{"count"})
	if err != nil {
		return nil, err
	}

	del := &Delete{
		txn:          txn,
		locks:        locks,
		tableID:      tableID,
		tableManager: tm,
		child:        child,
		resultDesc:   resultDesc,
	}
	del.base = NewBaseIterator(del.readNext)
	return del, nil
}

func (del *Delete) Open() error {
	if err := del.child.Open(); err != nil {
		return err
	}
	del.base.MarkOpened()
	return nil
}

func (del *Delete) Close() error {
	_ = del.child.Close()
	return del.base.Close()
}

// Rewind is not supported: re-running a delete over an already-deleted
// child would try to delete rows twice.
func (del *Delete) Rewind() error {
	return fmt.Errorf("delete cannot be rewound")
}

func (del *Delete) GetTupleDesc() *tuple.TupleDescription { return del.resultDesc }

func (del *Delete) HasNext() (bool, error) { return del.base.HasNext() }

func (del *Delete) Next() (*tuple.Tuple, error) { return del.base.Next() }

func (del *Delete) readNext() (*tuple.Tuple, error) {
	if del.done {
		return nil, nil
	}
	del.done = true

	table := primitives.NewTableIDFromUint64(uint64(del.tableID))
	if err := del.locks.Acquire(del.txn, lock.OnTable(table), lock.IX); err != nil {
		return nil, fmt.Errorf("acquiring table lock: %w", err)
	}

	heapFile, err := heapFileFor(del.tableManager, del.tableID)
	if err != nil {
		return nil, err
	}

	indexes, err := del.tableManager.GetIndexes(del.tableID)
	if err != nil {
		return nil, err
	}

	var count int64
	for {
		hasNext, err := del.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		t, err := del.child.Next()
		if err != nil {
			return nil, err
		}
		if t.RecordID == nil {
			return nil, fmt.Errorf("cannot delete row %d: no record id", count)
		}

		if err := del.locks.Acquire(del.txn, lock.OnRecord(table, t.RecordID), lock.X); err != nil {
			return nil, fmt.Errorf("acquiring record lock: %w", err)
		}

		preImage, err := t.Clone()
		if err != nil {
			return nil, err
		}
		preImage.RecordID = t.RecordID

		if err := maintainIndexesOnDelete(indexes, t); err != nil {
			return nil, fmt.Errorf("maintaining indexes for row %d: %w", count, err)
		}
		if err := deleteFromHeap(heapFile, t); err != nil {
			return nil, fmt.Errorf("deleting row %d: %w", count, err)
		}

		del.txn.RecordWrite(transaction.DeleteWrite, func() error {
			if err := insertIntoHeap(heapFile, preImage); err != nil {
				return err
			}
			return maintainIndexesOnInsert(indexes, preImage)
		})

		count++
	}

	result := tuple.NewTuple(del.resultDesc)
	if err := result.SetField(0, types.NewInt64Field(count)); err != nil {
		return nil, err
	}
	return result, nil
}
