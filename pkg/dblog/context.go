package dblog

import "go.uber.org/zap"

// WithTx returns a logger scoped to a transaction id.
//
// Example:
//
//	log := dblog.WithTx(txID)
//	log.Info("begin")
func WithTx(txID int64) *zap.Logger {
	return Get().With(zap.Int64("tx_id", txID))
}

// WithTable returns a logger scoped to a table name.
func WithTable(tableName string) *zap.Logger {
	return Get().With(zap.String("table", tableName))
}

// WithTableTx returns a logger scoped to both a transaction and a table.
func WithTableTx(txID int64, tableName string) *zap.Logger {
	return Get().With(zap.Int64("tx_id", txID), zap.String("table", tableName))
}

// WithIndex returns a logger scoped to an index name.
func WithIndex(indexName string) *zap.Logger {
	return Get().With(zap.String("index", indexName))
}

// WithLock returns a logger scoped to a transaction and the resource it is
// negotiating a lock on.
func WithLock(txID int64, resourceID string) *zap.Logger {
	return Get().With(zap.Int64("tx_id", txID), zap.String("resource", resourceID))
}

// WithComponent returns a logger scoped to a subsystem name, e.g. "btree" or
// "lock_manager".
func WithComponent(component string) *zap.Logger {
	return Get().With(zap.String("component", component))
}
