package btree

import (
	"fmt"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/index"
	"storedb/pkg/storage/page"
	"storedb/pkg/types"
)

// insertIntoLeaf inserts e into leaf, which must have room. A duplicate key
// is silently dropped instead of erroring.
func (bt *BTree) insertIntoLeaf(leaf *BTreePage, e *index.IndexEntry) error {
	insertPos := len(leaf.Entries)
	for i, existing := range leaf.Entries {
		if existing.Key.Equals(e.Key) {
			return nil
		}
		if lt, _ := e.Key.Compare(types.LessThan, existing.Key); lt {
			insertPos = i
			break
		}
	}

	wasFirstKey := insertPos == 0 && len(leaf.Entries) > 0

	if err := leaf.InsertEntry(e, insertPos); err != nil {
		return err
	}
	leaf.MarkDirty(true, nil)

	if err := bt.file.WriteBTreePage(leaf); err != nil {
		return err
	}

	if wasFirstKey && !leaf.IsRoot() {
		return bt.updateParentKey(leaf, e.Key)
	}
	return nil
}

// insertAndSplitLeaf inserts e into a full leaf, splitting it in two and
// pushing the new right page's minimum key into the parent.
func (bt *BTree) insertAndSplitLeaf(leaf *BTreePage, e *index.IndexEntry) error {
	for _, existing := range leaf.Entries {
		if existing.Key.Equals(e.Key) {
			return nil
		}
	}

	allEntries := make([]*index.IndexEntry, 0, len(leaf.Entries)+1)
	inserted := false
	for _, existing := range leaf.Entries {
		if !inserted {
			if lt, _ := e.Key.Compare(types.LessThan, existing.Key); lt {
				allEntries = append(allEntries, e)
				inserted = true
			}
		}
		allEntries = append(allEntries, existing)
	}
	if !inserted {
		allEntries = append(allEntries, e)
	}

	mid := len(allEntries) / 2
	leftEntries := allEntries[:mid]
	rightEntries := allEntries[mid:]

	leaf.Entries = leftEntries
	leaf.MarkDirty(true, nil)

	rightPage, err := bt.file.AllocatePage(nil, true, leaf.ParentPage)
	if err != nil {
		return fmt.Errorf("failed to allocate new leaf page: %w", err)
	}
	rightPage.Entries = rightEntries
	rightPage.PrevLeaf = leaf.PageNo()
	rightPage.NextLeaf = leaf.NextLeaf
	rightPage.MarkDirty(true, nil)

	if leaf.HasNextLeaf() {
		if nextPage, err := bt.readPageNo(leaf.NextLeaf); err == nil {
			nextPage.PrevLeaf = rightPage.PageNo()
			nextPage.MarkDirty(true, nil)
			_ = bt.file.WriteBTreePage(nextPage)
		}
	}
	leaf.NextLeaf = rightPage.PageNo()

	separatorKey := rightEntries[0].Key

	if err := bt.file.WriteBTreePage(leaf); err != nil {
		return fmt.Errorf("failed to write left leaf: %w", err)
	}
	if err := bt.file.WriteBTreePage(rightPage); err != nil {
		return fmt.Errorf("failed to write right leaf: %w", err)
	}

	return bt.insertIntoParent(leaf, separatorKey, rightPage)
}

// insertIntoParent records a new child (rightPage, reached via separatorKey)
// in leftPage's parent, splitting that parent too if needed, or creating a
// new root if leftPage had none.
func (bt *BTree) insertIntoParent(leftPage *BTreePage, separatorKey types.Field, rightPage *BTreePage) error {
	if leftPage.IsRoot() {
		return bt.createNewRoot(leftPage, separatorKey, rightPage)
	}

	parentPage, err := bt.readPageNo(leftPage.ParentPage)
	if err != nil {
		return fmt.Errorf("failed to read parent page: %w", err)
	}

	if parentPage.IsFull() {
		return bt.insertAndSplitInternal(parentPage, separatorKey, rightPage.GetID())
	}
	return bt.insertIntoInternal(parentPage, separatorKey, rightPage.GetID())
}

// insertIntoInternal inserts a (key, childPID) pair into an internal node
// that has room.
func (bt *BTree) insertIntoInternal(internalPage *BTreePage, key types.Field, childPID *page.PageDescriptor) error {
	children := internalPage.Children()
	insertPos := len(children)
	for i := 1; i < len(children); i++ {
		if lt, _ := key.Compare(types.LessThan, children[i].Key); lt {
			insertPos = i
			break
		}
	}

	if err := internalPage.AddChildPtr(NewBtreeChildPtr(key, childPID), insertPos); err != nil {
		return err
	}
	internalPage.MarkDirty(true, nil)

	if childPage, err := bt.file.ReadBTreePage(childPID); err == nil {
		childPage.SetParent(internalPage.PageNo())
		childPage.MarkDirty(true, nil)
		_ = bt.file.WriteBTreePage(childPage)
	}

	return bt.file.WriteBTreePage(internalPage)
}

// insertAndSplitInternal inserts a (key, childPID) pair into a full internal
// node, splitting it and pushing the middle key up to the parent.
func (bt *BTree) insertAndSplitInternal(internalPage *BTreePage, key types.Field, childPID *page.PageDescriptor) error {
	children := internalPage.Children()

	allChildren := make([]*BTreeChildPtr, 0, len(children)+1)
	allChildren = append(allChildren, children[0])

	inserted := false
	for i := 1; i < len(children); i++ {
		child := children[i]
		if !inserted && compareKeys(key, child.Key) < 0 {
			allChildren = append(allChildren, NewBtreeChildPtr(key, childPID))
			inserted = true
		}
		allChildren = append(allChildren, child)
	}
	if !inserted {
		allChildren = append(allChildren, NewBtreeChildPtr(key, childPID))
	}

	mid := len(allChildren) / 2
	leftChildren := allChildren[:mid]
	middleKey := allChildren[mid].Key
	rightChildren := allChildren[mid:]
	rightChildren[0] = NewBtreeChildPtr(nil, rightChildren[0].ChildPID)

	internalPage.InternalPages = leftChildren
	internalPage.MarkDirty(true, nil)

	rightPage, err := bt.file.AllocatePage(nil, false, internalPage.ParentPage)
	if err != nil {
		return fmt.Errorf("failed to allocate new internal page: %w", err)
	}
	rightPage.InternalPages = rightChildren
	rightPage.MarkDirty(true, nil)

	for _, child := range leftChildren {
		if childPage, err := bt.file.ReadBTreePage(child.ChildPID); err == nil {
			childPage.SetParent(internalPage.PageNo())
			childPage.MarkDirty(true, nil)
			_ = bt.file.WriteBTreePage(childPage)
		}
	}
	for _, child := range rightChildren {
		if childPage, err := bt.file.ReadBTreePage(child.ChildPID); err == nil {
			childPage.SetParent(rightPage.PageNo())
			childPage.MarkDirty(true, nil)
			_ = bt.file.WriteBTreePage(childPage)
		}
	}

	if err := bt.file.WriteBTreePage(internalPage); err != nil {
		return fmt.Errorf("failed to write left internal: %w", err)
	}
	if err := bt.file.WriteBTreePage(rightPage); err != nil {
		return fmt.Errorf("failed to write right internal: %w", err)
	}

	return bt.insertIntoParent(internalPage, middleKey, rightPage)
}

// createNewRoot builds a fresh internal root over leftPage and rightPage
// after the previous root split.
func (bt *BTree) createNewRoot(leftPage *BTreePage, separatorKey types.Field, rightPage *BTreePage) error {
	newRoot, err := bt.file.AllocatePage(nil, false, primitives.InvalidPageNumber)
	if err != nil {
		return fmt.Errorf("failed to allocate new root: %w", err)
	}

	newRoot.InternalPages = []*BTreeChildPtr{
		NewBtreeChildPtr(nil, leftPage.GetID()),
		NewBtreeChildPtr(separatorKey, rightPage.GetID()),
	}
	newRoot.MarkDirty(true, nil)

	leftPage.SetParent(newRoot.PageNo())
	leftPage.MarkDirty(true, nil)
	rightPage.SetParent(newRoot.PageNo())
	rightPage.MarkDirty(true, nil)

	bt.rootPageNo = newRoot.PageNo()

	if err := bt.file.WriteBTreePage(newRoot); err != nil {
		return fmt.Errorf("failed to write new root: %w", err)
	}
	if err := bt.file.WriteBTreePage(leftPage); err != nil {
		return fmt.Errorf("failed to write left page: %w", err)
	}
	return bt.file.WriteBTreePage(rightPage)
}
