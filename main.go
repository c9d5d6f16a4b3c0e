package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"storedb/pkg/concurrency/lock"
	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/dblog"
	"storedb/pkg/execution"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/heap"
	"storedb/pkg/tables"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

// tupleSource is a tiny DbIterator over an in-memory slice, standing in for
// a parsed VALUES clause or a query-planner leaf. It exists only so this
// driver can feed rows into the mutating executors without a SQL front end.
type tupleSource struct {
	base *execution.BaseIterator
	desc *tuple.TupleDescription
	rows []*tuple.Tuple
	pos  int
}

func newTupleSource(desc *tuple.TupleDescription, rows []*tuple.Tuple) *tupleSource {
	ts := &tupleSource{desc: desc, rows: rows}
	ts.base = execution.NewBaseIterator(ts.readNext)
	return ts
}

func (ts *tupleSource) readNext() (*tuple.Tuple, error) {
	if ts.pos >= len(ts.rows) {
		return nil, nil
	}
	t := ts.rows[ts.pos]
	ts.pos++
	return t, nil
}

func (ts *tupleSource) Open() error                         { ts.base.MarkOpened(); return nil }
func (ts *tupleSource) Close() error                         { return ts.base.Close() }
func (ts *tupleSource) Rewind() error                        { ts.pos = 0; ts.base.ClearCache(); return nil }
func (ts *tupleSource) GetTupleDesc() *tuple.TupleDescription { return ts.desc }
func (ts *tupleSource) HasNext() (bool, error)               { return ts.base.HasNext() }
func (ts *tupleSource) Next() (*tuple.Tuple, error)           { return ts.base.Next() }

func main() {
	dataDir := flag.String("data", "./data", "directory for table and index files")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	if err := dblog.Init(dblog.Config{Level: dblog.Level(strings.ToUpper(*logLevel)), Format: "console"}); err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer dblog.Close()

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("creating data directory: %v", err)
	}

	if err := run(*dataDir); err != nil {
		dblog.Get().Sugar().Fatalf("run failed: %v", err)
	}
}

// run wires up the storage, index, lock, transaction and execution layers
// against a single "accounts" table and drives a handful of transactions
// through it, exercising insert, scan, filter, update and rollback.
func run(dataDir string) error {
	tm := tables.NewTableManager()
	locks := lock.NewManager()
	registry := transaction.NewRegistry(locks)

	desc, err := tuple.NewTupleDesc(
		[]types.Type{types.Int32Type, types.StringType, types.Int64Type},
		[]string{"id", "name", "balance"},
	)
	if err != nil {
		return fmt.Errorf("building schema: %w", err)
	}

	heapPath := primitives.Filepath(dataDir).Join("accounts.tbl")
	heapFile, err := heap.NewHeapFile(heapPath, desc)
	if err != nil {
		return fmt.Errorf("opening heap file: %w", err)
	}
	if err := tm.AddTable(heapFile, "accounts", "id"); err != nil {
		return fmt.Errorf("registering table: %w", err)
	}
	tableID, err := tm.GetTableID("accounts")
	if err != nil {
		return err
	}

	if _, err := tm.CreateIndex(tableID, "accounts_name", 1, types.StringType, primitives.Filepath(dataDir)); err != nil {
		return fmt.Errorf("creating secondary index: %w", err)
	}

	if err := seedAccounts(registry, tm, tableID, desc); err != nil {
		return fmt.Errorf("seeding accounts: %w", err)
	}
	if err := printAccounts(registry, tm, tableID); err != nil {
		return fmt.Errorf("scanning accounts after seed: %w", err)
	}

	if err := applyRaise(registry, tm, tableID); err != nil {
		return fmt.Errorf("applying raise: %w", err)
	}
	if err := printAccounts(registry, tm, tableID); err != nil {
		return fmt.Errorf("scanning accounts after raise: %w", err)
	}

	if err := demonstrateRollback(registry, tm, tableID, desc); err != nil {
		return fmt.Errorf("demonstrating rollback: %w", err)
	}
	if err := printAccounts(registry, tm, tableID); err != nil {
		return fmt.Errorf("scanning accounts after rollback: %w", err)
	}

	return nil
}

func seedAccounts(registry *transaction.Registry, tm *tables.TableManager, tableID int, desc *tuple.TupleDescription) error {
	txn := registry.Begin(primitives.Serializable)

	rows := []*tuple.Tuple{
		newAccountRow(desc, 1, "alice", 1000),
		newAccountRow(desc, 2, "bob", 500),
		newAccountRow(desc, 3, "carol", 750),
	}
	source := newTupleSource(desc, rows)

	ins, err := execution.NewInsert(txn, registry.Locks(), tableID, tm, source)
	if err != nil {
		return err
	}
	if err := ins.Open(); err != nil {
		return err
	}
	defer ins.Close()

	if _, err := ins.Next(); err != nil {
		return err
	}

	return registry.Commit(txn)
}

// applyRaise brings every account below the 600 threshold up to a flat
// balance of 600, routed through the filter and update operators rather
// than direct heap mutation.
func applyRaise(registry *transaction.Registry, tm *tables.TableManager, tableID int) error {
	txn := registry.Begin(primitives.RepeatableRead)

	scan, err := execution.NewSeqScan(txn.TxnID(), tableID, tm)
	if err != nil {
		return err
	}
	if err := scan.Open(); err != nil {
		return err
	}

	lowBalance := execution.NewPredicate(2, execution.LessThan, types.NewInt64Field(600))
	filtered, err := execution.NewFilter(lowBalance, scan)
	if err != nil {
		scan.Close()
		return err
	}
	if err := filtered.Open(); err != nil {
		scan.Close()
		return err
	}

	var toRaise []*tuple.Tuple
	for {
		hasNext, err := filtered.HasNext()
		if err != nil {
			filtered.Close()
			return err
		}
		if !hasNext {
			break
		}
		t, err := filtered.Next()
		if err != nil {
			filtered.Close()
			return err
		}
		toRaise = append(toRaise, t)
	}
	filtered.Close()

	if len(toRaise) == 0 {
		return registry.Commit(txn)
	}

	source := newTupleSource(scan.GetTupleDesc(), toRaise)
	fieldUpdates := map[int]types.Field{2: types.NewInt64Field(600)}

	upd, err := execution.NewUpdate(txn, registry.Locks(), tableID, tm, source, fieldUpdates)
	if err != nil {
		return err
	}
	if err := upd.Open(); err != nil {
		return err
	}
	defer upd.Close()

	if _, err := upd.Next(); err != nil {
		return err
	}

	return registry.Commit(txn)
}

func demonstrateRollback(registry *transaction.Registry, tm *tables.TableManager, tableID int, desc *tuple.TupleDescription) error {
	txn := registry.Begin(primitives.Serializable)

	rows := []*tuple.Tuple{newAccountRow(desc, 4, "dave", 200)}
	source := newTupleSource(desc, rows)

	ins, err := execution.NewInsert(txn, registry.Locks(), tableID, tm, source)
	if err != nil {
		return err
	}
	if err := ins.Open(); err != nil {
		return err
	}
	if _, err := ins.Next(); err != nil {
		ins.Close()
		return err
	}
	ins.Close()

	return registry.Abort(txn)
}

func printAccounts(registry *transaction.Registry, tm *tables.TableManager, tableID int) error {
	txn := registry.Begin(primitives.ReadCommitted)
	defer registry.Commit(txn)

	scan, err := execution.NewSeqScan(txn.TxnID(), tableID, tm)
	if err != nil {
		return err
	}
	if err := scan.Open(); err != nil {
		return err
	}
	defer scan.Close()

	logger := dblog.WithTable("accounts")
	for {
		hasNext, err := scan.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}
		t, err := scan.Next()
		if err != nil {
			return err
		}
		logger.Sugar().Infof("row: %s", t.String())
	}
	return nil
}

func newAccountRow(desc *tuple.TupleDescription, id int32, name string, balance int64) *tuple.Tuple {
	t := tuple.NewTuple(desc)
	_ = t.SetField(0, types.NewInt32Field(id))
	_ = t.SetField(1, types.NewStringField(name, types.StringMaxSize))
	_ = t.SetField(2, types.NewInt64Field(balance))
	return t
}
