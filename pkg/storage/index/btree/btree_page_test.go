package btree

import (
	"storedb/pkg/primitives"
	"storedb/pkg/storage/index"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
	"testing"
)

func testBTreePageID(tableID, pageNum int) *page.PageDescriptor {
	return page.NewPageDescriptor(primitives.TableID(tableID), primitives.PageNumber(pageNum))
}

func TestNewBTreeLeafPage(t *testing.T) {
	pageID := testBTreePageID(1, 0)
	leaf := NewBTreeLeafPage(pageID, types.IntType, primitives.InvalidPageNumber)

	if !leaf.IsLeafPage() {
		t.Error("Expected leaf page")
	}
	if leaf.IsInternalPage() {
		t.Error("Expected not internal page")
	}
	if leaf.GetNumEntries() != 0 {
		t.Errorf("Expected 0 entries, got %d", leaf.GetNumEntries())
	}
	if leaf.ParentPage != primitives.InvalidPageNumber {
		t.Errorf("Expected parent InvalidPageNumber, got %d", leaf.ParentPage)
	}
	if leaf.IsRoot() != true {
		t.Error("Expected page to be root")
	}
	if leaf.IsDirty() != nil {
		t.Error("Expected page to not be dirty")
	}
}

func TestNewBTreeInternalPage(t *testing.T) {
	pageID := testBTreePageID(1, 0)
	internal := NewBTreeInternalPage(pageID, types.IntType, primitives.InvalidPageNumber)

	if internal.IsLeafPage() {
		t.Error("Expected not leaf page")
	}
	if !internal.IsInternalPage() {
		t.Error("Expected internal page")
	}
	// Internal page with no children has -1 entries (len(InternalPages) - 1 = 0 - 1)
	if internal.GetNumEntries() != -1 {
		t.Errorf("Expected -1 entries for empty internal page, got %d", internal.GetNumEntries())
	}
	if internal.ParentPage != primitives.InvalidPageNumber {
		t.Errorf("Expected parent InvalidPageNumber, got %d", internal.ParentPage)
	}
}

func TestLeafPageEntryOperations(t *testing.T) {
	pageID := testBTreePageID(1, 0)
	leaf := NewBTreeLeafPage(pageID, types.IntType, primitives.InvalidPageNumber)

	entry1 := &index.IndexEntry{
		Key: types.NewIntField(10),
		RID: &tuple.TupleRecordID{
			PageID:   testBTreePageID(1, 0),
			TupleNum: 0,
		},
	}
	entry2 := &index.IndexEntry{
		Key: types.NewIntField(20),
		RID: &tuple.TupleRecordID{
			PageID:   testBTreePageID(1, 0),
			TupleNum: 1,
		},
	}
	entry3 := &index.IndexEntry{
		Key: types.NewIntField(15),
		RID: &tuple.TupleRecordID{
			PageID:   testBTreePageID(1, 0),
			TupleNum: 2,
		},
	}

	// Test insert at end
	if err := leaf.InsertEntry(entry1, -1); err != nil {
		t.Fatalf("Failed to insert entry1: %v", err)
	}
	if leaf.GetNumEntries() != 1 {
		t.Errorf("Expected 1 entry, got %d", leaf.GetNumEntries())
	}

	// Test insert at specific position
	if err := leaf.InsertEntry(entry2, 1); err != nil {
		t.Fatalf("Failed to insert entry2: %v", err)
	}
	if leaf.GetNumEntries() != 2 {
		t.Errorf("Expected 2 entries, got %d", leaf.GetNumEntries())
	}

	// Test insert in middle
	if err := leaf.InsertEntry(entry3, 1); err != nil {
		t.Fatalf("Failed to insert entry3: %v", err)
	}
	if leaf.GetNumEntries() != 3 {
		t.Errorf("Expected 3 entries, got %d", leaf.GetNumEntries())
	}

	// Verify order: entry1(10), entry3(15), entry2(20)
	if eq, _ := leaf.Entries[0].Key.Compare(types.Equals, entry1.Key); !eq {
		t.Error("Entry at position 0 incorrect")
	}
	if eq, _ := leaf.Entries[1].Key.Compare(types.Equals, entry3.Key); !eq {
		t.Error("Entry at position 1 incorrect")
	}
	if eq, _ := leaf.Entries[2].Key.Compare(types.Equals, entry2.Key); !eq {
		t.Error("Entry at position 2 incorrect")
	}

	// Test remove entry
	removed, err := leaf.RemoveEntry(1)
	if err != nil {
		t.Fatalf("Failed to remove entry: %v", err)
	}
	if eq, _ := removed.Key.Compare(types.Equals, entry3.Key); !eq {
		t.Error("Removed wrong entry")
	}
	if leaf.GetNumEntries() != 2 {
		t.Errorf("Expected 2 entries after removal, got %d", leaf.GetNumEntries())
	}

	// Test remove last entry
	removed, err = leaf.RemoveEntry(-1)
	if err != nil {
		t.Fatalf("Failed to remove last entry: %v", err)
	}
	if eq, _ := removed.Key.Compare(types.Equals, entry2.Key); !eq {
		t.Error("Removed wrong entry")
	}
	if leaf.GetNumEntries() != 1 {
		t.Errorf("Expected 1 entry after removal, got %d", leaf.GetNumEntries())
	}
}

func TestInternalPageChildOperations(t *testing.T) {
	pageID := testBTreePageID(1, 0)
	internal := NewBTreeInternalPage(pageID, types.IntType, primitives.InvalidPageNumber)

	// Create child pointers
	child0 := NewBtreeChildPtr(nil, testBTreePageID(1, 1))
	child1 := NewBtreeChildPtr(types.NewIntField(10), testBTreePageID(1, 2))
	child2 := NewBtreeChildPtr(types.NewIntField(20), testBTreePageID(1, 3))

	// Add first child (no key)
	if err := internal.AddChildPtr(child0, 0); err != nil {
		t.Fatalf("Failed to add child0: %v", err)
	}
	if internal.GetNumEntries() != 0 {
		t.Errorf("Expected 0 entries with 1 child, got %d", internal.GetNumEntries())
	}

	// Add second child (with key)
	if err := internal.AddChildPtr(child1, 1); err != nil {
		t.Fatalf("Failed to add child1: %v", err)
	}
	if internal.GetNumEntries() != 1 {
		t.Errorf("Expected 1 entry with 2 children, got %d", internal.GetNumEntries())
	}

	// Add third child
	if err := internal.AddChildPtr(child2, 2); err != nil {
		t.Fatalf("Failed to add child2: %v", err)
	}
	if internal.GetNumEntries() != 2 {
		t.Errorf("Expected 2 entries with 3 children, got %d", internal.GetNumEntries())
	}

	// Test get child key
	key, err := internal.GetChildKey(1)
	if err != nil {
		t.Fatalf("Failed to get child key: %v", err)
	}
	if eq, _ := key.Compare(types.Equals, types.NewIntField(10)); !eq {
		t.Error("Got wrong child key")
	}

	// Test update child key
	if err := internal.UpdateChildrenKey(1, types.NewIntField(15)); err != nil {
		t.Fatalf("Failed to update child key: %v", err)
	}
	key, _ = internal.GetChildKey(1)
	if eq, _ := key.Compare(types.Equals, types.NewIntField(15)); !eq {
		t.Error("Child key not updated correctly")
	}

	// Test remove child
	removed, err := internal.RemoveChildPtr(1)
	if err != nil {
		t.Fatalf("Failed to remove child: %v", err)
	}
	if eq, _ := removed.Key.Compare(types.Equals, types.NewIntField(15)); !eq {
		t.Error("Removed wrong child")
	}
	if internal.GetNumEntries() != 1 {
		t.Errorf("Expected 1 entry after removal, got %d", internal.GetNumEntries())
	}
}

func TestPageSerialization(t *testing.T) {
	// Create a leaf page with entries
	pageID := testBTreePageID(1, 5)
	leaf := NewBTreeLeafPage(pageID, types.IntType, 2)
	leaf.NextLeaf = 6
	leaf.PrevLeaf = 4

	entry1 := &index.IndexEntry{
		Key: types.NewIntField(100),
		RID: &tuple.TupleRecordID{
			PageID:   testBTreePageID(1, 10),
			TupleNum: 5,
		},
	}
	entry2 := &index.IndexEntry{
		Key: types.NewIntField(200),
		RID: &tuple.TupleRecordID{
			PageID:   testBTreePageID(1, 11),
			TupleNum: 7,
		},
	}

	leaf.InsertEntry(entry1, -1)
	leaf.InsertEntry(entry2, -1)

	// Serialize
	data := leaf.GetPageData()

	// Deserialize
	deserializedPage, err := DeserializeBTreePage(data, pageID)
	if err != nil {
		t.Fatalf("Failed to deserialize page: %v", err)
	}

	// Verify page properties
	if !deserializedPage.IsLeafPage() {
		t.Error("Deserialized page should be leaf")
	}
	if deserializedPage.ParentPage != 2 {
		t.Errorf("Expected parent 2, got %d", deserializedPage.ParentPage)
	}
	if deserializedPage.NextLeaf != 6 {
		t.Errorf("Expected NextLeaf 6, got %d", deserializedPage.NextLeaf)
	}
	if deserializedPage.PrevLeaf != 4 {
		t.Errorf("Expected PrevLeaf 4, got %d", deserializedPage.PrevLeaf)
	}
	if deserializedPage.GetNumEntries() != 2 {
		t.Errorf("Expected 2 entries, got %d", deserializedPage.GetNumEntries())
	}

	// Verify entries
	if eq, _ := deserializedPage.Entries[0].Key.Compare(types.Equals, entry1.Key); !eq {
		t.Error("First entry key mismatch")
	}
	if deserializedPage.Entries[0].RID.TupleNum != 5 {
		t.Error("First entry RID mismatch")
	}
	if eq, _ := deserializedPage.Entries[1].Key.Compare(types.Equals, entry2.Key); !eq {
		t.Error("Second entry key mismatch")
	}
}

func TestInternalPageSerialization(t *testing.T) {
	pageID := testBTreePageID(2, 3)
	internal := NewBTreeInternalPage(pageID, types.IntType, primitives.InvalidPageNumber)

	child0 := NewBtreeChildPtr(nil, testBTreePageID(2, 10))
	child1 := NewBtreeChildPtr(types.NewIntField(50), testBTreePageID(2, 11))
	child2 := NewBtreeChildPtr(types.NewIntField(100), testBTreePageID(2, 12))

	internal.AddChildPtr(child0, 0)
	internal.AddChildPtr(child1, 1)
	internal.AddChildPtr(child2, 2)

	// Serialize
	data := internal.GetPageData()

	// Deserialize
	deserializedPage, err := DeserializeBTreePage(data, pageID)
	if err != nil {
		t.Fatalf("Failed to deserialize internal page: %v", err)
	}

	// Verify
	if !deserializedPage.IsInternalPage() {
		t.Error("Deserialized page should be internal")
	}
	if deserializedPage.GetNumEntries() != 2 {
		t.Errorf("Expected 2 entries, got %d", deserializedPage.GetNumEntries())
	}
	if len(deserializedPage.InternalPages) != 3 {
		t.Errorf("Expected 3 children, got %d", len(deserializedPage.InternalPages))
	}

	// Verify first child has no key
	if deserializedPage.InternalPages[0].Key != nil {
		t.Error("First child should have no key")
	}
	if deserializedPage.InternalPages[0].ChildPID.PageNo() != 10 {
		t.Error("First child PID mismatch")
	}

	// Verify second child
	if eq, _ := deserializedPage.InternalPages[1].Key.Compare(types.Equals, types.NewIntField(50)); !eq {
		t.Error("Second child key mismatch")
	}

	// Verify third child
	if eq, _ := deserializedPage.InternalPages[2].Key.Compare(types.Equals, types.NewIntField(100)); !eq {
		t.Error("Third child key mismatch")
	}
}

func TestDirtyTracking(t *testing.T) {
	pageID := testBTreePageID(1, 0)
	leaf := NewBTreeLeafPage(pageID, types.IntType, primitives.InvalidPageNumber)

	// Initially not dirty
	if leaf.IsDirty() != nil {
		t.Error("New page should not be dirty")
	}

	// Mark dirty
	txnID := primitives.NewTransactionID()
	leaf.MarkDirty(true, txnID)

	if leaf.IsDirty() == nil {
		t.Error("Page should be dirty after marking")
	}
	if leaf.IsDirty().ID() != txnID.ID() {
		t.Errorf("Expected txn ID %d, got %d", txnID.ID(), leaf.IsDirty().ID())
	}

	// Verify before image was captured
	if leaf.beforeImage == nil {
		t.Error("Before image should be set when marking dirty")
	}

	// Add an entry to modify the page
	entry := &index.IndexEntry{
		Key: types.NewIntField(10),
		RID: &tuple.TupleRecordID{
			PageID:   testBTreePageID(1, 0),
			TupleNum: 0,
		},
	}
	leaf.InsertEntry(entry, -1)

	// Get before image
	beforePage := leaf.GetBeforeImage()
	if beforePage == nil {
		t.Fatal("Before image should be retrievable")
	}

	beforeBTree := beforePage.(*BTreePage)
	if beforeBTree.GetNumEntries() != 0 {
		t.Error("Before image should have 0 entries")
	}
	if leaf.GetNumEntries() != 1 {
		t.Error("Current page should have 1 entry")
	}
}

func TestPageCapacity(t *testing.T) {
	pageID := testBTreePageID(1, 0)
	leaf := NewBTreeLeafPage(pageID, types.IntType, primitives.InvalidPageNumber)

	if leaf.IsFull() {
		t.Error("Empty page should not be full")
	}

	// Add entries up to max
	for i := 0; i < MaxEntriesPerPage; i++ {
		entry := &index.IndexEntry{
			Key: types.NewIntField(int64(i)),
			RID: &tuple.TupleRecordID{
				PageID:   testBTreePageID(1, 0),
				TupleNum: primitives.SlotID(i),
			},
		}
		leaf.InsertEntry(entry, -1)
	}

	if !leaf.IsFull() {
		t.Error("Page should be full after adding max entries")
	}

	if !leaf.HasMoreThanRequired() {
		t.Error("Full page should have more than required entries")
	}
}

func TestPageRelations(t *testing.T) {
	pageID := testBTreePageID(1, 5)
	leaf := NewBTreeLeafPage(pageID, types.IntType, 2)

	// Test parent
	if leaf.IsRoot() {
		t.Error("Page with parent should not be root")
	}
	if leaf.Parent() != 2 {
		t.Errorf("Expected parent 2, got %d", leaf.Parent())
	}

	// Set new parent
	leaf.SetParent(3)
	if leaf.Parent() != 3 {
		t.Errorf("Expected parent 3, got %d", leaf.Parent())
	}

	// Test leaf links
	if leaf.HasPreviousLeaf() {
		t.Error("Should not have previous leaf initially")
	}
	if leaf.HasNextLeaf() {
		t.Error("Should not have next leaf initially")
	}

	leaf.PrevLeaf = 4
	leaf.NextLeaf = 6

	if !leaf.HasPreviousLeaf() {
		t.Error("Should have previous leaf")
	}
	if !leaf.HasNextLeaf() {
		t.Error("Should have next leaf")
	}

	left, right := leaf.Leaves()
	if left != 4 || right != 6 {
		t.Errorf("Expected leaves (4, 6), got (%d, %d)", left, right)
	}
}

func TestPageWithStringKeys(t *testing.T) {
	pageID := testBTreePageID(1, 0)
	leaf := NewBTreeLeafPage(pageID, types.StringType, primitives.InvalidPageNumber)

	entry1 := &index.IndexEntry{
		Key: types.NewStringField("apple", types.StringMaxSize),
		RID: &tuple.TupleRecordID{
			PageID:   testBTreePageID(1, 0),
			TupleNum: 0,
		},
	}
	entry2 := &index.IndexEntry{
		Key: types.NewStringField("banana", types.StringMaxSize),
		RID: &tuple.TupleRecordID{
			PageID:   testBTreePageID(1, 0),
			TupleNum: 1,
		},
	}

	leaf.InsertEntry(entry1, -1)
	leaf.InsertEntry(entry2, -1)

	// Serialize and deserialize
	data := leaf.GetPageData()
	deserializedPage, err := DeserializeBTreePage(data, pageID)
	if err != nil {
		t.Fatalf("Failed to deserialize page with string keys: %v", err)
	}

	if deserializedPage.GetNumEntries() != 2 {
		t.Errorf("Expected 2 entries, got %d", deserializedPage.GetNumEntries())
	}

	if eq, _ := deserializedPage.Entries[0].Key.Compare(types.Equals, entry1.Key); !eq {
		t.Error("String key mismatch for first entry")
	}
	if eq, _ := deserializedPage.Entries[1].Key.Compare(types.Equals, entry2.Key); !eq {
		t.Error("String key mismatch for second entry")
	}
}

func TestErrorConditions(t *testing.T) {
	pageID := testBTreePageID(1, 0)
	leaf := NewBTreeLeafPage(pageID, types.IntType, primitives.InvalidPageNumber)

	// Test invalid insert index
	entry := &index.IndexEntry{
		Key: types.NewIntField(10),
		RID: &tuple.TupleRecordID{
			PageID:   testBTreePageID(1, 0),
			TupleNum: 0,
		},
	}

	if err := leaf.InsertEntry(entry, 10); err == nil {
		t.Error("Should error on invalid insert index")
	}
	if err := leaf.InsertEntry(entry, -2); err == nil {
		t.Error("Should error on invalid negative index")
	}

	// Test invalid remove index
	leaf.InsertEntry(entry, -1)
	if _, err := leaf.RemoveEntry(10); err == nil {
		t.Error("Should error on invalid remove index")
	}
	if _, err := leaf.RemoveEntry(-2); err == nil {
		t.Error("Should error on invalid negative remove index")
	}

	// Test internal page errors
	internalPage := NewBTreeInternalPage(testBTreePageID(1, 1), types.IntType, primitives.InvalidPageNumber)
	child := NewBtreeChildPtr(nil, testBTreePageID(1, 2))
	internalPage.AddChildPtr(child, 0)

	if err := internalPage.UpdateChildrenKey(0, types.NewIntField(10)); err == nil {
		t.Error("Should error when trying to update key of first child")
	}
	if _, err := internalPage.GetChildKey(10); err == nil {
		t.Error("Should error on invalid child index")
	}
}
