package lock

import (
	"fmt"
	"storedb/pkg/primitives"
	"storedb/pkg/tuple"
)

// Granularity distinguishes a whole-table lock from a single-record lock.
type Granularity int

const (
	TableGranularity Granularity = iota
	RecordGranularity
)

func (g Granularity) String() string {
	if g == TableGranularity {
		return "TABLE"
	}
	return "RECORD"
}

// DataID names one lockable resource: either an entire table, or a single
// record within it. It is a plain comparable value so it can key a map
// directly — RecordIDs are decomposed into their scalar page number and
// slot rather than carried as a primitives.PageID interface value, because
// the only concrete PageID implementation is a pointer type and two reads
// of "the same" page produce distinct pointer instances that would compare
// unequal as map keys.
type DataID struct {
	Table       primitives.TableID
	Granularity Granularity
	Page        primitives.PageNumber
	Slot        primitives.SlotID
}

// OnTable builds the resource id for a whole-table lock.
func OnTable(table primitives.TableID) DataID {
	return DataID{Table: table, Granularity: TableGranularity}
}

// OnRecord builds the resource id for a single record lock.
func OnRecord(table primitives.TableID, rid *tuple.TupleRecordID) DataID {
	return DataID{
		Table:       table,
		Granularity: RecordGranularity,
		Page:        rid.PageID.PageNo(),
		Slot:        rid.TupleNum,
	}
}

func (id DataID) String() string {
	if id.Granularity == TableGranularity {
		return fmt.Sprintf("table(%s)", id.Table.String())
	}
	return fmt.Sprintf("record(%s, page=%d, slot=%d)", id.Table.String(), id.Page, id.Slot)
}
