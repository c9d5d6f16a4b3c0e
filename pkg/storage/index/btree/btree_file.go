package btree

import (
	"fmt"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
	"sync"
)

// BTreeFile is the on-disk file backing a single B+tree index. It owns page
// I/O and page-number bookkeeping; the tree structure itself (root,
// split/merge, navigation) lives in BTree.
type BTreeFile struct {
	*page.BaseFile
	tableID  primitives.TableID
	keyType  types.Type
	numPages primitives.PageNumber
	mutex    sync.RWMutex
}

// NewBTreeFile creates or opens a B+tree index file at the given path.
func NewBTreeFile(filePath primitives.Filepath, keyType types.Type) (*BTreeFile, error) {
	baseFile, err := page.NewBaseFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open btree file: %w", err)
	}

	numPages, err := baseFile.NumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to get num pages: %w", err)
	}

	return &BTreeFile{
		BaseFile: baseFile,
		tableID:  filePath.HashAsTableID(),
		keyType:  keyType,
		numPages: numPages,
	}, nil
}

// GetKeyType returns the type of keys stored in this index.
func (bf *BTreeFile) GetKeyType() types.Type {
	return bf.keyType
}

// GetTableID returns the identifier pages in this file are stamped with.
func (bf *BTreeFile) GetTableID() primitives.TableID {
	return bf.tableID
}

// NumPages returns the current number of pages allocated in this file.
func (bf *BTreeFile) NumPages() int {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()
	return int(bf.numPages)
}

// ReadBTreePage reads a single page and deserializes it into a BTreePage.
func (bf *BTreeFile) ReadBTreePage(pid *page.PageDescriptor) (*BTreePage, error) {
	if pid == nil {
		return nil, fmt.Errorf("page ID cannot be nil")
	}
	if pid.GetTableID() != bf.tableID {
		return nil, fmt.Errorf("page ID table mismatch")
	}

	pageData, err := bf.ReadPageData(pid.PageNo())
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", pid.PageNo(), err)
	}

	btreePage, err := DeserializeBTreePage(pageData, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize page: %w", err)
	}
	return btreePage, nil
}

// ReadPage implements page.DbFile by accepting a generic PageID.
func (bf *BTreeFile) ReadPage(pid primitives.PageID) (page.Page, error) {
	pd, ok := pid.(*page.PageDescriptor)
	if !ok {
		return nil, fmt.Errorf("page ID must be a *page.PageDescriptor, got %T", pid)
	}
	return bf.ReadBTreePage(pd)
}

// WriteBTreePage serializes and writes a page to disk, extending the file's
// page count if the page was newly allocated at the end of the file.
func (bf *BTreeFile) WriteBTreePage(p *BTreePage) error {
	if p == nil {
		return fmt.Errorf("page cannot be nil")
	}

	if err := bf.WritePageData(p.PageNo(), p.GetPageData()); err != nil {
		return fmt.Errorf("failed to write page data: %w", err)
	}

	bf.mutex.Lock()
	if p.PageNo() >= bf.numPages {
		bf.numPages = p.PageNo() + 1
	}
	bf.mutex.Unlock()

	return nil
}

// WritePage implements page.DbFile by accepting a generic Page.
func (bf *BTreeFile) WritePage(p page.Page) error {
	btreePage, ok := p.(*BTreePage)
	if !ok {
		return fmt.Errorf("page must be a *BTreePage, got %T", p)
	}
	return bf.WriteBTreePage(btreePage)
}

// AllocatePage reserves the next page number in the file and returns a
// fresh, dirty BTreePage for it. The caller is responsible for writing it.
func (bf *BTreeFile) AllocatePage(tid *primitives.TransactionID, isLeaf bool, parentPage primitives.PageNumber) (*BTreePage, error) {
	bf.mutex.Lock()
	pageNum := bf.numPages
	bf.numPages++
	bf.mutex.Unlock()

	pageID := page.NewPageDescriptor(bf.tableID, pageNum)

	var newPage *BTreePage
	if isLeaf {
		newPage = NewBTreeLeafPage(pageID, bf.keyType, parentPage)
	} else {
		newPage = NewBTreeInternalPage(pageID, bf.keyType, parentPage)
	}
	newPage.MarkDirty(true, tid)

	return newPage, nil
}

// GetID implements page.DbFile. It returns the table id this file's pages
// are stamped with, narrowed to an int to match the interface.
func (bf *BTreeFile) GetID() int {
	return int(bf.tableID)
}

func (bf *BTreeFile) GetTupleDesc() *tuple.TupleDescription {
	td, _ := tuple.NewTupleDesc([]types.Type{bf.keyType}, []string{"key"})
	return td
}
