package execution

import (
	"fmt"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/bufferpool"
	"storedb/pkg/storage/heap"
	"storedb/pkg/storage/page"
	"storedb/pkg/tables"
	"storedb/pkg/tuple"
	"storedb/pkg/types"

	"golang.org/x/sync/errgroup"
)

// pagePool returns the process-wide page cache, or nil if it failed to
// initialize; every call site falls back to reading the file directly in
// that case, so a cache outage degrades performance, not correctness.
func pagePool() *bufferpool.Pool {
	return bufferpool.Shared()
}

func readHeapPage(heapFile *heap.HeapFile, pid primitives.PageID) (*heap.HeapPage, error) {
	var (
		p   page.Page
		err error
	)
	if pool := pagePool(); pool != nil {
		p, err = pool.Get(heapFile, pid)
	} else {
		p, err = heapFile.ReadPage(pid)
	}
	if err != nil {
		return nil, err
	}
	hp, ok := p.(*heap.HeapPage)
	if !ok {
		return nil, fmt.Errorf("page %s is not a heap page", pid.String())
	}
	return hp, nil
}

func writeHeapPage(heapFile *heap.HeapFile, hp *heap.HeapPage) error {
	if pool := pagePool(); pool != nil {
		return pool.Put(heapFile, hp)
	}
	return heapFile.WritePage(hp)
}

// heapFileFor resolves the heap file backing a table, failing if the table
// is registered against some other storage engine (only heap tables
// support the tuple-level mutations the executors in this package need).
func heapFileFor(tm *tables.TableManager, tableID int) (*heap.HeapFile, error) {
	dbFile, err := tm.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	heapFile, ok := dbFile.(*heap.HeapFile)
	if !ok {
		return nil, fmt.Errorf("table %d is not heap-backed", tableID)
	}
	return heapFile, nil
}

// insertIntoHeap places t on the first existing page with room, falling
// back to a freshly allocated page, and stamps t.RecordID with its new
// location. Grounded on the first-fit-then-allocate placement strategy of
// insert operators that work directly against a slotted heap file.
func insertIntoHeap(heapFile *heap.HeapFile, t *tuple.Tuple) error {
	table := primitives.NewTableIDFromUint64(uint64(heapFile.GetID()))

	numPages, err := heapFile.NumPages()
	if err != nil {
		return fmt.Errorf("counting pages: %w", err)
	}

	for pn := primitives.PageNumber(0); pn < numPages; pn++ {
		hp, err := readHeapPage(heapFile, page.NewPageDescriptor(table, pn))
		if err != nil {
			return fmt.Errorf("reading page %d: %w", pn, err)
		}
		if hp.GetNumEmptySlots() == 0 {
			continue
		}
		if err := hp.AddTuple(t); err != nil {
			return fmt.Errorf("adding tuple to page %d: %w", pn, err)
		}
		return writeHeapPage(heapFile, hp)
	}

	newPage, err := heapFile.AllocateNewPage()
	if err != nil {
		return fmt.Errorf("allocating new page: %w", err)
	}
	hp, err := heap.NewEmptyHeapPage(page.NewPageDescriptor(table, newPage), heapFile.GetTupleDesc())
	if err != nil {
		return fmt.Errorf("creating new page: %w", err)
	}
	if err := hp.AddTuple(t); err != nil {
		return fmt.Errorf("adding tuple to new page %d: %w", newPage, err)
	}
	return writeHeapPage(heapFile, hp)
}

// deleteFromHeap removes t from the page its RecordID names.
func deleteFromHeap(heapFile *heap.HeapFile, t *tuple.Tuple) error {
	if t.RecordID == nil {
		return fmt.Errorf("cannot delete a tuple with no record id")
	}
	hp, err := readHeapPage(heapFile, t.RecordID.PageID)
	if err != nil {
		return fmt.Errorf("reading page for delete: %w", err)
	}
	if err := hp.DeleteTuple(t); err != nil {
		return fmt.Errorf("deleting tuple %s: %w", t.RecordID.String(), err)
	}
	return writeHeapPage(heapFile, hp)
}

// indexKey extracts the field an index is built over, with a clear error
// if the tuple's schema doesn't have that many columns.
func indexKey(idx *tables.IndexInfo, t *tuple.Tuple) (types.Field, error) {
	return t.GetField(idx.FieldIndex)
}

// maintainIndexesOnInsert adds t's RecordID under every secondary index's
// key to every index registered on the table, fanning the per-index work
// out across goroutines since each index's B+tree guards itself with its
// own lock and the indexes are otherwise independent of one another.
func maintainIndexesOnInsert(indexes []*tables.IndexInfo, t *tuple.Tuple) error {
	if len(indexes) == 0 {
		return nil
	}
	var g errgroup.Group
	for _, idx := range indexes {
		idx := idx
		g.Go(func() error {
			key, err := indexKey(idx, t)
			if err != nil {
				return fmt.Errorf("index %s: %w", idx.Name, err)
			}
			if err := idx.File.Insert(key, t.RecordID); err != nil {
				return fmt.Errorf("index %s: %w", idx.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// maintainIndexesOnDelete removes t's RecordID from every secondary index
// registered on the table. This is the step the original delete operator
// never performed, leaving stale entries behind on every DELETE.
func maintainIndexesOnDelete(indexes []*tables.IndexInfo, t *tuple.Tuple) error {
	if len(indexes) == 0 {
		return nil
	}
	var g errgroup.Group
	for _, idx := range indexes {
		idx := idx
		g.Go(func() error {
			key, err := indexKey(idx, t)
			if err != nil {
				return fmt.Errorf("index %s: %w", idx.Name, err)
			}
			if err := idx.File.Delete(key, t.RecordID); err != nil {
				return fmt.Errorf("index %s: %w", idx.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
