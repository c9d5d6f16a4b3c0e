package btree

import (
	"fmt"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

// BTreeFileIterator walks every entry in a tree in key order by following
// the leaf page linked list from the leftmost leaf.
type BTreeFileIterator struct {
	tree        *BTree
	currentLeaf *BTreePage
	currentPos  int
}

// NewBTreeFileIterator creates an unopened iterator over tree.
func NewBTreeFileIterator(tree *BTree) *BTreeFileIterator {
	return &BTreeFileIterator{tree: tree}
}

// Open positions the iterator at the first entry of the leftmost leaf.
func (it *BTreeFileIterator) Open() error {
	it.tree.mutex.Lock()
	defer it.tree.mutex.Unlock()

	if it.tree.file.NumPages() == 0 {
		it.currentLeaf = nil
		return nil
	}

	current, err := it.tree.getRootPage()
	if err != nil {
		return fmt.Errorf("failed to read root page: %w", err)
	}

	for !current.IsLeafPage() {
		children := current.Children()
		if len(children) == 0 {
			return fmt.Errorf("internal node has no children")
		}
		current, err = it.tree.file.ReadBTreePage(children[0].ChildPID)
		if err != nil {
			return fmt.Errorf("failed to read child page: %w", err)
		}
	}

	it.currentLeaf = current
	it.currentPos = 0
	return nil
}

// HasNext reports whether another entry is available.
func (it *BTreeFileIterator) HasNext() (bool, error) {
	if it.currentLeaf == nil {
		return false, nil
	}
	if it.currentPos < len(it.currentLeaf.Entries) {
		return true, nil
	}
	return it.currentLeaf.HasNextLeaf(), nil
}

// Next returns the next entry as a single-field tuple carrying the key,
// with RecordID set to the entry's rid (for index scans consumed directly
// by executors rather than joined back to the heap file).
func (it *BTreeFileIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, fmt.Errorf("no more entries")
	}

	if it.currentPos >= len(it.currentLeaf.Entries) {
		next, err := it.tree.readPageNo(it.currentLeaf.NextLeaf)
		if err != nil {
			return nil, fmt.Errorf("failed to read next leaf: %w", err)
		}
		it.currentLeaf = next
		it.currentPos = 0
	}

	entry := it.currentLeaf.Entries[it.currentPos]
	it.currentPos++

	td, err := tuple.NewTupleDesc([]types.Type{entry.Key.Type()}, []string{"key"})
	if err != nil {
		return nil, err
	}
	tup := tuple.NewTuple(td)
	tup.SetField(0, entry.Key)
	tup.RecordID = entry.RID

	return tup, nil
}

// Close releases the iterator's reference to the current leaf.
func (it *BTreeFileIterator) Close() error {
	it.currentLeaf = nil
	return nil
}

// Rewind restarts the iterator from the leftmost leaf.
func (it *BTreeFileIterator) Rewind() error {
	it.currentPos = 0
	return it.Open()
}
