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

// Insert is a mutating operator: it reads every tuple its child produces
// and physically inserts it into the target table, maintaining every
// secondary index registered on that table. Like the other mutating
// executors it is single-shot — the first Next call drains the child
// entirely and returns one result tuple holding the number of rows
// inserted; every call after that reports end of data.
type Insert struct {
	base         *BaseIterator
	txn          *transaction.Transaction
	locks        *lock.Manager
	tableID      int
	tableManager *tables.TableManager
	child        DbIterator
	resultDesc   *tuple.TupleDescription
	done         bool
}

// NewInsert builds an Insert operator that inserts every tuple child
// produces into the table identified by tableID.
func NewInsert(txn *transaction.Transaction, locks *lock.Manager, tableID int, tm *tables.TableManager, child DbIterator) (*Insert, error) {
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

	ins := &Insert{
		txn:          txn,
		locks:        locks,
		tableID:      tableID,
		tableManager: tm,
		child:        child,
		resultDesc:   resultDesc,
	}
	ins.base = NewBaseIterator(ins.readNext)
	return ins, nil
}

func (ins *Insert) Open() error {
	if err := ins.child.Open(); err != nil {
		return err
	}
	ins.base.MarkOpened()
	return nil
}

func (ins *Insert) Close() error {
	_ = ins.child.Close()
	return ins.base.Close()
}

// Rewind is not supported: re-running an insert would duplicate rows.
func (ins *Insert) Rewind() error {
	return fmt.Errorf("insert cannot be rewound")
}

func (ins *Insert) GetTupleDesc() *tuple.TupleDescription { return ins.resultDesc }

func (ins *Insert) HasNext() (bool, error) { return ins.base.HasNext() }

func (ins *Insert) Next() (*tuple.Tuple, error) { return ins.base.Next() }

func (ins *Insert) readNext() (*tuple.Tuple, error) {
	if ins.done {
		return nil, nil
	}
	ins.done = true

	table := primitives.NewTableIDFromUint64(uint64(ins.tableID))
	if err := ins.locks.Acquire(ins.txn, lock.OnTable(table), lock.IX); err != nil {
		return nil, fmt.Errorf("acquiring table lock: %w", err)
	}

	heapFile, err := heapFileFor(ins.tableManager, ins.tableID)
	if err != nil {
		return nil, err
	}

	indexes, err := ins.tableManager.GetIndexes(ins.tableID)
	if err != nil {
		return nil, err
	}

	var count int64
	for {
		hasNext, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}

		if err := insertIntoHeap(heapFile, t); err != nil {
			return nil, fmt.Errorf("inserting row %d: %w", count, err)
		}

		if err := ins.locks.Acquire(ins.txn, lock.OnRecord(table, t.RecordID), lock.X); err != nil {
			return nil, fmt.Errorf("acquiring record lock: %w", err)
		}

		if err := maintainIndexesOnInsert(indexes, t); err != nil {
			return nil, fmt.Errorf("maintaining indexes for row %d: %w", count, err)
		}

		insertedRID := t.RecordID
		ins.txn.RecordWrite(transaction.InsertWrite, func() error {
			undo, err := t.Clone()
			if err != nil {
				return err
			}
			undo.RecordID = insertedRID
			if err := maintainIndexesOnDelete(indexes, undo); err != nil {
				return err
			}
			return deleteFromHeap(heapFile, undo)
		})

		count++
	}

	result := tuple.NewTuple(ins.resultDesc)
	if err := result.SetField(0, types.NewInt64Field(count)); err != nil {
		return nil, err
	}
	return result, nil
}
