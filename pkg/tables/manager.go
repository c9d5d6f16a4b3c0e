package tables

import (
	"fmt"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/index"
	"storedb/pkg/storage/index/btree"
	"storedb/pkg/storage/page"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// openIndexFile opens (or creates) the on-disk file backing an index of the
// given type and wraps it with its navigation/mutation logic, returning it
// as an index.IndexFile. The B+tree is the only index implementation
// storedb ships; the switch stays in place so adding a second index type
// later does not require touching call sites.
func openIndexFile(indexType index.IndexType, filePath primitives.Filepath, keyType types.Type) (index.IndexFile, error) {
	switch indexType {
	case index.BTreeIndex:
		file, err := btree.NewBTreeFile(filePath, keyType)
		if err != nil {
			return nil, err
		}
		return btree.NewBTree(file), nil
	default:
		return nil, fmt.Errorf("unsupported index type: %s", indexType)
	}
}

type TableManager struct {
	nameToTable map[string]*TableInfo
	idToTable   map[int]*TableInfo
	mutex       sync.RWMutex
}

// NewTableManager creates a new empty catalog
func NewTableManager() *TableManager {
	return &TableManager{
		nameToTable: make(map[string]*TableInfo),
		idToTable:   make(map[int]*TableInfo),
	}
}

// AddTable adds a new table to the catalog, replacing any existing table with the same name or ID
func (tm *TableManager) AddTable(f page.DbFile, name, pKey string) error {
	if f == nil {
		return fmt.Errorf("file cannot be nil")
	}
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tableInfo := NewTableInfo(f, name, pKey)
	tid := f.GetID()

	if t, exists := tm.nameToTable[name]; exists {
		delete(tm.idToTable, t.GetID())
	}

	if t, exists := tm.idToTable[tid]; exists {
		delete(tm.nameToTable, t.Name)
	}

	tm.nameToTable[name] = tableInfo
	tm.idToTable[tid] = tableInfo
	return nil
}

// GetTableID returns the ID of the table with the specified name
func (tm *TableManager) GetTableID(name string) (int, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	tableInfo, exists := tm.nameToTable[name]
	if !exists {
		return 0, fmt.Errorf("table '%s' not found", name)
	}

	return tableInfo.GetID(), nil
}

// GetTableName returns the name of the table with the specified ID
func (tm *TableManager) GetTableName(tableID int) (string, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	tableInfo, exists := tm.idToTable[tableID]
	if !exists {
		return "", fmt.Errorf("table with ID %d not found", tableID)
	}

	return tableInfo.Name, nil
}

// GetTupleDesc returns the schema for the table with the specified ID
func (tm *TableManager) GetTupleDesc(tableID int) (*tuple.TupleDescription, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	tableInfo, exists := tm.idToTable[tableID]
	if !exists {
		return nil, fmt.Errorf("table with ID %d not found", tableID)
	}

	return tableInfo.TupleDesc, nil
}

func (tm *TableManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	for _, tableInfo := range tm.idToTable {
		tableInfo.File.Close()
	}

	tm.nameToTable = make(map[string]*TableInfo)
	tm.idToTable = make(map[int]*TableInfo)
}

// GetDbFile returns the DbFile for the table with the specified ID
func (tm *TableManager) GetDbFile(tableID int) (page.DbFile, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	ti, exists := tm.idToTable[tableID]
	if !exists {
		return nil, fmt.Errorf("table with ID %d not found", tableID)
	}

	return ti.File, nil
}

// AddIndex registers a secondary index on the table with the given ID.
func (tm *TableManager) AddIndex(tableID int, idx *IndexInfo) error {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	ti, exists := tm.idToTable[tableID]
	if !exists {
		return fmt.Errorf("table with ID %d not found", tableID)
	}
	ti.AddIndex(idx)
	return nil
}

// CreateIndex builds and registers a new secondary index on an existing
// column, the way a CREATE INDEX statement would. The backing file is
// named off a fresh uuid rather than the table name and column, so two
// indexes created concurrently (or one created while an old one with the
// same logical name is still being dropped) never race for the same path.
func (tm *TableManager) CreateIndex(tableID int, indexName string, fieldIndex int, keyType types.Type, dataDir primitives.Filepath) (*IndexInfo, error) {
	tm.mutex.RLock()
	_, exists := tm.idToTable[tableID]
	tm.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("table with ID %d not found", tableID)
	}

	indexID := primitives.NewIndexIDFromUUID()
	filePath := dataDir.Join(fmt.Sprintf("%s_%s.idx", indexName, uuid.New().String()))

	file, err := openIndexFile(index.BTreeIndex, filePath, keyType)
	if err != nil {
		return nil, fmt.Errorf("opening index file for %s: %w", indexName, err)
	}

	idx := &IndexInfo{
		Name:       indexName,
		FieldIndex: fieldIndex,
		File:       file,
		ID:         indexID,
	}
	if err := tm.AddIndex(tableID, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// GetIndexes returns the secondary indexes registered on the table with the
// given ID.
func (tm *TableManager) GetIndexes(tableID int) ([]*IndexInfo, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	ti, exists := tm.idToTable[tableID]
	if !exists {
		return nil, fmt.Errorf("table with ID %d not found", tableID)
	}
	return ti.Indexes, nil
}

// ValidateIntegrity performs basic integrity checks on the catalog
func (tm *TableManager) ValidateIntegrity() error {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	if len(tm.nameToTable) != len(tm.idToTable) {
		return fmt.Errorf("catalog integrity violation: map size mismatch")
	}

	for name, table := range tm.nameToTable {
		if t, exists := tm.idToTable[table.GetID()]; !exists {
			return fmt.Errorf("catalog integrity violation: table %s missing from ID map", name)
		} else if t != table {
			return fmt.Errorf("catalog integrity violation: table %s reference mismatch", name)
		}
	}

	for id, table := range tm.idToTable {
		if otherTable, exists := tm.nameToTable[table.Name]; !exists {
			return fmt.Errorf("catalog integrity violation: table ID %d missing from name map", id)
		} else if otherTable != table {
			return fmt.Errorf("catalog integrity violation: table ID %d reference mismatch", id)
		}
	}

	return nil
}

// TableExists reports whether a table with the given name is registered.
func (tm *TableManager) TableExists(name string) bool {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	_, exists := tm.nameToTable[name]
	return exists
}

// RemoveTable drops the table with the given name from both catalog maps.
func (tm *TableManager) RemoveTable(name string) error {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tableInfo, exists := tm.nameToTable[name]
	if !exists {
		return fmt.Errorf("table '%s' not found", name)
	}

	delete(tm.nameToTable, name)
	delete(tm.idToTable, tableInfo.GetID())
	return nil
}

// RenameTable changes the name under which an existing table is registered,
// leaving its ID, file, and schema untouched.
func (tm *TableManager) RenameTable(oldName, newName string) error {
	if oldName == "" || newName == "" {
		return fmt.Errorf("table names cannot be empty")
	}
	if newName != strings.TrimSpace(newName) {
		return fmt.Errorf("new table name cannot have leading or trailing whitespace")
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tableInfo, exists := tm.nameToTable[oldName]
	if !exists {
		return fmt.Errorf("table '%s' not found", oldName)
	}

	if _, exists := tm.nameToTable[newName]; exists {
		return fmt.Errorf("table '%s' already exists", newName)
	}

	delete(tm.nameToTable, oldName)
	tableInfo.Name = newName
	tm.nameToTable[newName] = tableInfo
	tm.idToTable[tableInfo.GetID()] = tableInfo
	return nil
}

// GetAllTableNames returns a slice of all table names in the catalog
func (tm *TableManager) GetAllTableNames() []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.nameToTable))
	for name := range tm.nameToTable {
		names = append(names, name)
	}

	return names
}
