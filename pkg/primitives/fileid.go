package primitives

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// FileID Methods
// =============================================================================

// IsValid checks if the FileID is a valid non-zero identifier.
// A FileID of 0 is typically considered invalid or uninitialized.
func (f FileID) IsValid() bool {
	return f != 0
}

// AsUint64 returns the FileID as a uint64 for serialization or storage.
func (f FileID) AsUint64() uint64 {
	return uint64(f)
}

// String returns a string representation of the FileID.
func (f FileID) String() string {
	return fmt.Sprintf("FileID(%d)", f)
}

// NewFileIDFromUint64 builds a FileID from a raw numeric value, e.g. one
// read back from a catalog record.
func NewFileIDFromUint64(v uint64) FileID {
	return FileID(v)
}

// TableID and IndexID
// =============================================================================
//
// Both are FileID in disguise: a heap file and a B+tree file are addressed
// the same way at the OS level (BaseFile keys everything off a FileID), but
// callers that hold a TableID should never be able to hand it to an index
// file API and vice versa without saying so explicitly. The distinct types
// catch that mistake at compile time; ToFileID/AsTableID/AsIndexID make the
// deliberate crossing explicit at the handful of sites that need it (the
// table manager registering an index file under its owning table, for
// instance).

// TableID identifies a table's backing heap file.
type TableID uint64

// IndexID identifies an index's backing B+tree file.
type IndexID uint64

// ToFileID returns the underlying FileID for this table.
func (t TableID) ToFileID() FileID {
	return FileID(t)
}

// IsValid reports whether this is a non-zero table identifier.
func (t TableID) IsValid() bool {
	return t != 0
}

// AsUint64 returns the TableID as a uint64 for serialization or storage.
func (t TableID) AsUint64() uint64 {
	return uint64(t)
}

// String returns a string representation of the TableID.
func (t TableID) String() string {
	return fmt.Sprintf("TableID(%d)", t)
}

// AsIndexID reinterprets this TableID as an IndexID. Used when a table and
// one of its indexes are deliberately keyed off the same hash (e.g. the
// table's own file path hashed once for the heap file and once, with a
// suffix, for an index file).
func (t TableID) AsIndexID() IndexID {
	return IndexID(t)
}

// ToFileID returns the underlying FileID for this index.
func (i IndexID) ToFileID() FileID {
	return FileID(i)
}

// IsValid reports whether this is a non-zero index identifier.
func (i IndexID) IsValid() bool {
	return i != 0
}

// AsUint64 returns the IndexID as a uint64 for serialization or storage.
func (i IndexID) AsUint64() uint64 {
	return uint64(i)
}

// String returns a string representation of the IndexID.
func (i IndexID) String() string {
	return fmt.Sprintf("IndexID(%d)", i)
}

// AsTableID reinterprets this IndexID as a TableID.
func (i IndexID) AsTableID() TableID {
	return TableID(i)
}

// NewTableIDFromUint64 builds a TableID from a raw numeric value.
func NewTableIDFromUint64(v uint64) TableID {
	return TableID(v)
}

// NewIndexIDFromUint64 builds an IndexID from a raw numeric value.
func NewIndexIDFromUint64(v uint64) IndexID {
	return IndexID(v)
}

// NewTableIDFromFileID reinterprets a FileID as a TableID.
func NewTableIDFromFileID(f FileID) TableID {
	return TableID(f)
}

// NewIndexIDFromFileID reinterprets a FileID as an IndexID.
func NewIndexIDFromFileID(f FileID) IndexID {
	return IndexID(f)
}

// NewIndexIDFromUUID mints an IndexID that isn't derived from any file path,
// for indexes built without a caller-chosen stable name (an ad hoc CREATE
// INDEX, a temporary index built during a bulk load). Taking a hash of a
// path only works when two indexes are guaranteed never to share one; a
// random id sidesteps that guarantee entirely.
func NewIndexIDFromUUID() IndexID {
	id := uuid.New()
	return IndexID(binary.BigEndian.Uint64(id[:8]))
}
