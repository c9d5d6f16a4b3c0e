package btree

import (
	"fmt"
	"slices"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/index"
	"storedb/pkg/types"
)

// deleteFromLeaf removes the entry matching target from leaf, fixes up the
// parent separator if the leaf's minimum key changed, and rebalances the
// tree if the leaf fell below its minimum occupancy.
func (bt *BTree) deleteFromLeaf(leaf *BTreePage, target *index.IndexEntry) error {
	deleteIdx := slices.IndexFunc(leaf.Entries, func(e *index.IndexEntry) bool {
		return e.Equals(target)
	})
	if deleteIdx == -1 {
		return fmt.Errorf("entry not found")
	}

	wasFirstKey := deleteIdx == 0 && len(leaf.Entries) > 1

	if _, err := leaf.RemoveEntry(deleteIdx); err != nil {
		return err
	}
	leaf.MarkDirty(true, nil)

	if err := bt.file.WriteBTreePage(leaf); err != nil {
		return err
	}

	if wasFirstKey {
		if err := bt.updateParentKey(leaf, leaf.Entries[0].Key); err != nil {
			return err
		}
	}

	if !leaf.IsRoot() && leaf.HashLessThanRequired() {
		return bt.handleUnderflow(leaf)
	}
	return nil
}

// updateParentKey fixes the separator key pointing at child after its
// minimum key changed. Position 0 in a node's children carries no separator
// (it covers "everything less than children[1]"), so there is nothing to
// fix when child is its parent's first child; the real bound lives higher
// up and was already correct.
func (bt *BTree) updateParentKey(child *BTreePage, newKey types.Field) error {
	if child.IsRoot() {
		return nil
	}

	parent, err := bt.readPageNo(child.ParentPage)
	if err != nil {
		return err
	}

	children := parent.Children()
	idx := slices.IndexFunc(children, func(c *BTreeChildPtr) bool {
		return c.ChildPID.Equals(child.GetID())
	})
	if idx <= 0 {
		return nil
	}

	if err := parent.UpdateChildrenKey(idx, newKey); err != nil {
		return err
	}
	parent.MarkDirty(true, nil)
	return bt.file.WriteBTreePage(parent)
}

// handleUnderflow rebalances p after it dropped below minimum occupancy:
// borrow from a sibling with room to spare, or merge with one otherwise.
// At the root, an internal page left with a single child is collapsed away.
func (bt *BTree) handleUnderflow(p *BTreePage) error {
	if p.IsRoot() {
		if p.IsInternalPage() && p.GetNumEntries() == 0 && len(p.Children()) == 1 {
			onlyChild, err := bt.file.ReadBTreePage(p.Children()[0].ChildPID)
			if err != nil {
				return err
			}
			onlyChild.SetParent(primitives.InvalidPageNumber)
			onlyChild.MarkDirty(true, nil)
			bt.rootPageNo = onlyChild.PageNo()
			return bt.file.WriteBTreePage(onlyChild)
		}
		return nil
	}

	parent, err := bt.readPageNo(p.ParentPage)
	if err != nil {
		return err
	}

	children := parent.Children()
	childIdx := slices.IndexFunc(children, func(c *BTreeChildPtr) bool {
		return c.ChildPID.Equals(p.GetID())
	})
	if childIdx == -1 {
		return fmt.Errorf("page not found in parent")
	}

	if childIdx > 0 {
		if left, err := bt.file.ReadBTreePage(children[childIdx-1].ChildPID); err == nil && left.HasMoreThanRequired() {
			return bt.redistributeFromLeft(left, p, parent, childIdx)
		}
	}
	if childIdx < len(children)-1 {
		if right, err := bt.file.ReadBTreePage(children[childIdx+1].ChildPID); err == nil && right.HasMoreThanRequired() {
			return bt.redistributeFromRight(p, right, parent, childIdx)
		}
	}

	if childIdx > 0 {
		if left, err := bt.file.ReadBTreePage(children[childIdx-1].ChildPID); err == nil {
			return bt.mergeWithLeft(left, p, parent, childIdx)
		}
	}
	if childIdx < len(children)-1 {
		if right, err := bt.file.ReadBTreePage(children[childIdx+1].ChildPID); err == nil {
			return bt.mergeWithRight(p, right, parent, childIdx)
		}
	}

	return nil
}

// redistributeFromLeft borrows one entry/child from left to relieve
// current's underflow, updating the separator key in parent.
func (bt *BTree) redistributeFromLeft(left, current, parent *BTreePage, pageIdx int) error {
	if current.IsLeafPage() {
		last := len(left.Entries) - 1
		moved := left.Entries[last]
		left.Entries = left.Entries[:last]
		left.MarkDirty(true, nil)

		current.Entries = append([]*index.IndexEntry{moved}, current.Entries...)
		current.MarkDirty(true, nil)

		parent.InternalPages[pageIdx].Key = moved.Key
		parent.MarkDirty(true, nil)

		if err := bt.file.WriteBTreePage(left); err != nil {
			return err
		}
		if err := bt.file.WriteBTreePage(current); err != nil {
			return err
		}
		return bt.file.WriteBTreePage(parent)
	}

	lastIdx := len(left.InternalPages) - 1
	moved := left.InternalPages[lastIdx]
	left.InternalPages = left.InternalPages[:lastIdx]
	left.MarkDirty(true, nil)

	oldSeparator := parent.InternalPages[pageIdx].Key
	current.InternalPages = append([]*BTreeChildPtr{NewBtreeChildPtr(nil, moved.ChildPID)}, current.InternalPages...)
	if len(current.InternalPages) > 1 {
		current.InternalPages[1].Key = oldSeparator
	}
	current.MarkDirty(true, nil)

	if childPage, err := bt.file.ReadBTreePage(moved.ChildPID); err == nil {
		childPage.SetParent(current.PageNo())
		childPage.MarkDirty(true, nil)
		_ = bt.file.WriteBTreePage(childPage)
	}

	parent.InternalPages[pageIdx].Key = moved.Key
	parent.MarkDirty(true, nil)

	if err := bt.file.WriteBTreePage(left); err != nil {
		return err
	}
	if err := bt.file.WriteBTreePage(current); err != nil {
		return err
	}
	return bt.file.WriteBTreePage(parent)
}

// redistributeFromRight borrows one entry/child from right to relieve
// current's underflow, updating the separator key in parent.
func (bt *BTree) redistributeFromRight(current, right, parent *BTreePage, pageIdx int) error {
	if current.IsLeafPage() {
		moved := right.Entries[0]
		right.Entries = right.Entries[1:]
		right.MarkDirty(true, nil)

		current.Entries = append(current.Entries, moved)
		current.MarkDirty(true, nil)

		parent.InternalPages[pageIdx+1].Key = right.Entries[0].Key
		parent.MarkDirty(true, nil)

		if err := bt.file.WriteBTreePage(current); err != nil {
			return err
		}
		if err := bt.file.WriteBTreePage(right); err != nil {
			return err
		}
		return bt.file.WriteBTreePage(parent)
	}

	moved := right.InternalPages[0]
	right.InternalPages = right.InternalPages[1:]
	right.MarkDirty(true, nil)

	newSeparator := parent.InternalPages[pageIdx+1].Key
	current.InternalPages = append(current.InternalPages, NewBtreeChildPtr(newSeparator, moved.ChildPID))
	current.MarkDirty(true, nil)

	if childPage, err := bt.file.ReadBTreePage(moved.ChildPID); err == nil {
		childPage.SetParent(current.PageNo())
		childPage.MarkDirty(true, nil)
		_ = bt.file.WriteBTreePage(childPage)
	}

	if len(right.InternalPages) > 0 {
		parent.InternalPages[pageIdx+1].Key = right.InternalPages[0].Key
		right.InternalPages[0] = NewBtreeChildPtr(nil, right.InternalPages[0].ChildPID)
	}
	parent.MarkDirty(true, nil)

	if err := bt.file.WriteBTreePage(current); err != nil {
		return err
	}
	if err := bt.file.WriteBTreePage(right); err != nil {
		return err
	}
	return bt.file.WriteBTreePage(parent)
}

// mergeWithLeft folds current into left (left absorbs current's entries)
// and removes current's separator from parent, rebalancing parent in turn
// if that drops it below minimum occupancy.
func (bt *BTree) mergeWithLeft(left, current, parent *BTreePage, pageIdx int) error {
	if current.IsLeafPage() {
		left.Entries = append(left.Entries, current.Entries...)
		left.NextLeaf = current.NextLeaf
		left.MarkDirty(true, nil)

		if current.HasNextLeaf() {
			if nextPage, err := bt.readPageNo(current.NextLeaf); err == nil {
				nextPage.PrevLeaf = left.PageNo()
				nextPage.MarkDirty(true, nil)
				_ = bt.file.WriteBTreePage(nextPage)
			}
		}
	} else {
		separator := parent.InternalPages[pageIdx].Key
		current.InternalPages[0] = NewBtreeChildPtr(separator, current.InternalPages[0].ChildPID)
		left.InternalPages = append(left.InternalPages, current.InternalPages...)
		left.MarkDirty(true, nil)

		for _, child := range current.Children() {
			if childPage, err := bt.file.ReadBTreePage(child.ChildPID); err == nil {
				childPage.SetParent(left.PageNo())
				childPage.MarkDirty(true, nil)
				_ = bt.file.WriteBTreePage(childPage)
			}
		}
	}

	if err := bt.file.WriteBTreePage(left); err != nil {
		return err
	}

	parent.InternalPages = slices.Delete(parent.InternalPages, pageIdx, pageIdx+1)
	parent.MarkDirty(true, nil)
	if err := bt.file.WriteBTreePage(parent); err != nil {
		return err
	}

	return bt.rebalanceAfterMerge(parent)
}

// mergeWithRight folds right into current and removes right's separator
// from parent, rebalancing parent in turn if needed.
func (bt *BTree) mergeWithRight(current, right, parent *BTreePage, pageIdx int) error {
	if current.IsLeafPage() {
		current.Entries = append(current.Entries, right.Entries...)
		current.NextLeaf = right.NextLeaf
		current.MarkDirty(true, nil)

		if right.HasNextLeaf() {
			if nextPage, err := bt.readPageNo(right.NextLeaf); err == nil {
				nextPage.PrevLeaf = current.PageNo()
				nextPage.MarkDirty(true, nil)
				_ = bt.file.WriteBTreePage(nextPage)
			}
		}
	} else {
		separator := parent.InternalPages[pageIdx+1].Key
		right.InternalPages[0] = NewBtreeChildPtr(separator, right.InternalPages[0].ChildPID)
		current.InternalPages = append(current.InternalPages, right.InternalPages...)
		current.MarkDirty(true, nil)

		for _, child := range right.Children() {
			if childPage, err := bt.file.ReadBTreePage(child.ChildPID); err == nil {
				childPage.SetParent(current.PageNo())
				childPage.MarkDirty(true, nil)
				_ = bt.file.WriteBTreePage(childPage)
			}
		}
	}

	if err := bt.file.WriteBTreePage(current); err != nil {
		return err
	}

	parent.InternalPages = slices.Delete(parent.InternalPages, pageIdx+1, pageIdx+2)
	parent.MarkDirty(true, nil)
	if err := bt.file.WriteBTreePage(parent); err != nil {
		return err
	}

	return bt.rebalanceAfterMerge(parent)
}

func (bt *BTree) rebalanceAfterMerge(parent *BTreePage) error {
	if parent.IsRoot() {
		if parent.IsInternalPage() && parent.GetNumEntries() == 0 {
			return bt.handleUnderflow(parent)
		}
		return nil
	}
	if parent.HashLessThanRequired() {
		return bt.handleUnderflow(parent)
	}
	return nil
}
