package tuple

import (
	"fmt"
	"storedb/pkg/primitives"
)

// TupleRecordID locates a single tuple on disk: the page it lives on plus
// its slot within that page. Index entries carry one of these as their
// payload so a key lookup resolves straight to a heap page and slot without
// a second index lookup.
type TupleRecordID struct {
	PageID   primitives.PageID
	TupleNum primitives.SlotID
}

// NewTupleRecordID builds a TupleRecordID from a page identifier and slot.
func NewTupleRecordID(pageID primitives.PageID, tupleNum primitives.SlotID) *TupleRecordID {
	return &TupleRecordID{
		PageID:   pageID,
		TupleNum: tupleNum,
	}
}

// Equals reports whether two record ids name the same slot.
func (rid *TupleRecordID) Equals(other *TupleRecordID) bool {
	if rid == nil || other == nil {
		return rid == other
	}
	if rid.PageID == nil || other.PageID == nil {
		return rid.PageID == other.PageID && rid.TupleNum == other.TupleNum
	}
	return rid.PageID.Equals(other.PageID) && rid.TupleNum == other.TupleNum
}

func (rid *TupleRecordID) String() string {
	if rid == nil {
		return "TupleRecordID(nil)"
	}
	return fmt.Sprintf("TupleRecordID(page=%s, slot=%d)", rid.PageID.String(), rid.TupleNum)
}
