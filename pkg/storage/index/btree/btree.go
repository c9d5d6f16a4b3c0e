package btree

import (
	"fmt"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/index"
	"storedb/pkg/storage/page"
	"storedb/pkg/types"
	"sync"
)

// BTree implements index.IndexFile on top of a BTreeFile. Every operation
// takes a single coarse index-wide latch; there is no per-page latching or
// lock-coupling down the tree, matching the scope of the index engine (page
// latching is its own concern left to a buffer-pool layer this package does
// not own).
type BTree struct {
	file       *BTreeFile
	keyType    types.Type
	mutex      sync.Mutex
	rootPageNo primitives.PageNumber
}

// NewBTree wraps a BTreeFile with tree navigation and mutation logic.
func NewBTree(file *BTreeFile) *BTree {
	return &BTree{
		file:    file,
		keyType: file.GetKeyType(),
	}
}

// Insert adds a key-value pair to the tree. A key that already exists is
// silently ignored rather than erroring, matching the lower_bound-based
// duplicate check of the handle this tree's insert path was modeled on: it
// finds the first entry with a key not less than the new one and treats an
// exact match there as "already present".
func (bt *BTree) Insert(key index.Field, rid index.RecID) error {
	if key.Type() != bt.keyType {
		return fmt.Errorf("key type mismatch: expected %v, got %v", bt.keyType, key.Type())
	}

	bt.mutex.Lock()
	defer bt.mutex.Unlock()

	root, err := bt.getRootPage()
	if err != nil {
		return fmt.Errorf("failed to get root page: %w", err)
	}

	leaf, err := bt.findLeafPage(root, key)
	if err != nil {
		return fmt.Errorf("failed to find leaf page: %w", err)
	}

	entry := index.NewIndexEntry(key, rid)

	if leaf.IsFull() {
		return bt.insertAndSplitLeaf(leaf, entry)
	}
	return bt.insertIntoLeaf(leaf, entry)
}

// Delete removes a specific key/rid pair from the tree.
func (bt *BTree) Delete(key index.Field, rid index.RecID) error {
	if key.Type() != bt.keyType {
		return fmt.Errorf("key type mismatch: expected %v, got %v", bt.keyType, key.Type())
	}

	bt.mutex.Lock()
	defer bt.mutex.Unlock()

	if bt.file.NumPages() == 0 {
		return fmt.Errorf("entry not found")
	}

	root, err := bt.getRootPage()
	if err != nil {
		return fmt.Errorf("failed to get root page: %w", err)
	}

	leaf, err := bt.findLeafPage(root, key)
	if err != nil {
		return fmt.Errorf("failed to find leaf page: %w", err)
	}

	return bt.deleteFromLeaf(leaf, index.NewIndexEntry(key, rid))
}

// Search returns every rid stored under key.
func (bt *BTree) Search(key index.Field) ([]index.RecID, error) {
	if key.Type() != bt.keyType {
		return nil, fmt.Errorf("key type mismatch: expected %v, got %v", bt.keyType, key.Type())
	}

	bt.mutex.Lock()
	defer bt.mutex.Unlock()

	if bt.file.NumPages() == 0 {
		return nil, nil
	}

	root, err := bt.getRootPage()
	if err != nil {
		return nil, fmt.Errorf("failed to get root page: %w", err)
	}

	leaf, err := bt.findLeafPage(root, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find leaf page: %w", err)
	}

	var results []index.RecID
	for _, entry := range leaf.Entries {
		if entry.Key.Equals(key) {
			results = append(results, entry.RID)
		}
	}
	return results, nil
}

// RangeSearch returns every rid whose key falls in [startKey, endKey],
// walking the leaf chain forward from the leaf containing startKey.
func (bt *BTree) RangeSearch(startKey, endKey index.Field) ([]index.RecID, error) {
	if startKey.Type() != bt.keyType || endKey.Type() != bt.keyType {
		return nil, fmt.Errorf("key type mismatch")
	}

	bt.mutex.Lock()
	defer bt.mutex.Unlock()

	if bt.file.NumPages() == 0 {
		return nil, nil
	}

	root, err := bt.getRootPage()
	if err != nil {
		return nil, fmt.Errorf("failed to get root page: %w", err)
	}

	leaf, err := bt.findLeafPage(root, startKey)
	if err != nil {
		return nil, fmt.Errorf("failed to find start leaf page: %w", err)
	}

	var results []index.RecID
	for leaf != nil {
		for _, entry := range leaf.Entries {
			ge, _ := entry.Key.Compare(types.GreaterThanOrEqual, startKey)
			le, _ := entry.Key.Compare(types.LessThanOrEqual, endKey)
			if ge && le {
				results = append(results, entry.RID)
			} else if !le {
				return results, nil
			}
		}

		if !leaf.HasNextLeaf() {
			break
		}
		leaf, err = bt.readPageNo(leaf.NextLeaf)
		if err != nil {
			return nil, fmt.Errorf("failed to read next leaf page: %w", err)
		}
	}

	return results, nil
}

func (bt *BTree) GetIndexType() index.IndexType {
	return index.BTreeIndex
}

func (bt *BTree) GetKeyType() types.Type {
	return bt.keyType
}

func (bt *BTree) Close() error {
	return bt.file.Close()
}

// GetID, ReadPage, WritePage and NumPages delegate to the backing file so
// BTree alone satisfies index.IndexFile.

func (bt *BTree) GetID() int {
	return bt.file.GetID()
}

func (bt *BTree) ReadPage(pid primitives.PageID) (page.Page, error) {
	return bt.file.ReadPage(pid)
}

func (bt *BTree) WritePage(p page.Page) error {
	return bt.file.WritePage(p)
}

func (bt *BTree) NumPages() int {
	return bt.file.NumPages()
}

// Iterator returns a fresh, unopened iterator over every entry in the tree
// in key order.
func (bt *BTree) Iterator() *BTreeFileIterator {
	return NewBTreeFileIterator(bt)
}

// getRootPage returns the current root page, creating an empty leaf root on
// first use. The root's page number is tracked in memory for the life of
// this BTree rather than persisted in a header page: recovering it across a
// process restart is a system-catalog concern this package leaves to its
// caller.
func (bt *BTree) getRootPage() (*BTreePage, error) {
	if bt.file.NumPages() == 0 {
		root := NewBTreeLeafPage(page.NewPageDescriptor(bt.file.GetTableID(), 0), bt.keyType, primitives.InvalidPageNumber)
		root.MarkDirty(true, nil)
		if err := bt.file.WriteBTreePage(root); err != nil {
			return nil, err
		}
		bt.rootPageNo = 0
		return root, nil
	}
	return bt.readPageNo(bt.rootPageNo)
}

func (bt *BTree) readPageNo(pageNo primitives.PageNumber) (*BTreePage, error) {
	return bt.file.ReadBTreePage(page.NewPageDescriptor(bt.file.GetTableID(), pageNo))
}

// findLeafPage walks down from current to the leaf that should contain key.
func (bt *BTree) findLeafPage(current *BTreePage, key types.Field) (*BTreePage, error) {
	for !current.IsLeafPage() {
		childPID := bt.findChildPointer(current, key)
		if childPID == nil {
			return nil, fmt.Errorf("internal node has no children")
		}
		child, err := bt.file.ReadBTreePage(childPID)
		if err != nil {
			return nil, fmt.Errorf("failed to read child page: %w", err)
		}
		current = child
	}
	return current, nil
}

// findChildPointer picks the child that should contain key within an
// internal node. children[0] covers every key less than children[1].Key;
// children[i] (i>=1) covers [children[i].Key, children[i+1].Key). A key less
// than every separator falls through to children[0] — this must not be
// conditioned on finding some matching separator first, or keys below the
// smallest separator are routed to the wrong child.
func (bt *BTree) findChildPointer(internal *BTreePage, key types.Field) *page.PageDescriptor {
	children := internal.Children()
	if len(children) == 0 {
		return nil
	}

	for i := len(children) - 1; i >= 1; i-- {
		if ge, _ := key.Compare(types.GreaterThanOrEqual, children[i].Key); ge {
			return children[i].ChildPID
		}
	}

	return children[0].ChildPID
}

// compareKeys compares two keys, returning -1, 0, or 1.
func compareKeys(k1, k2 types.Field) int {
	if k1.Equals(k2) {
		return 0
	}
	if lt, _ := k1.Compare(types.LessThan, k2); lt {
		return -1
	}
	return 1
}
