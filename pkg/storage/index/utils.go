package index

// OpenFile has moved to storedb/pkg/tables (its only caller) because its
// B+tree implementation lives in storedb/pkg/storage/index/btree, which
// itself imports this package — keeping the factory here would create an
// import cycle.
