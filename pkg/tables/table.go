package tables

import (
	"fmt"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/index"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
)

// IndexInfo describes one secondary index built over a single column of a
// table.
type IndexInfo struct {
	Name       string
	FieldIndex int
	File       index.IndexFile
	// ID distinguishes this index instance from any other, including ones
	// registered under the same Name at a different point in the table's
	// history (a dropped-and-recreated index). Indexes opened directly
	// against a caller-chosen file path may leave this zero.
	ID primitives.IndexID
}

// TableInfo holds metadata about a table
type TableInfo struct {
	File       page.DbFile             // The file storing the table data
	Name       string                  // The table name
	PrimaryKey string                  // Primary key field name
	TupleDesc  *tuple.TupleDescription // Schema of the table
	Indexes    []*IndexInfo            // Secondary indexes on this table, in registration order
}

// NewTableInfo creates a new table info instance
func NewTableInfo(file page.DbFile, name, primaryKey string) *TableInfo {
	return &TableInfo{
		File:       file,
		Name:       name,
		PrimaryKey: primaryKey,
		TupleDesc:  file.GetTupleDesc(),
	}
}

// AddIndex registers a secondary index on the table. Mutating executors
// walk this list to keep every index consistent with the heap file.
func (ti *TableInfo) AddIndex(idx *IndexInfo) {
	ti.Indexes = append(ti.Indexes, idx)
}

// IndexOn returns the index built over fieldIndex, if one exists.
func (ti *TableInfo) IndexOn(fieldIndex int) (*IndexInfo, bool) {
	for _, idx := range ti.Indexes {
		if idx.FieldIndex == fieldIndex {
			return idx, true
		}
	}
	return nil, false
}

// GetID returns the table's unique identifier
func (ti *TableInfo) GetID() int {
	return ti.File.GetID()
}

// String returns a string representation of the table info
func (ti *TableInfo) String() string {
	return fmt.Sprintf("Table(%s, id=%d, schema=%s, pk=%s)",
		ti.Name, ti.GetID(), ti.TupleDesc.String(), ti.PrimaryKey)
}
