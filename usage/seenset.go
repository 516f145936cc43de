package usage

import (
	"github.com/forestrie/go-segmentusage/segment"
	"github.com/google/btree"
)

// seenDegree keeps the btree nodes small, a store may hold millions of
// records and the set must stay dense.
const seenDegree = 16

// SeenSet remembers which records have been charged.
//
// Offsets are kept per segment, shifted right by the record alignment so
// that every offset of a segment fits in 16 bits.
type SeenSet struct {
	segments map[segment.SegmentID]*btree.BTreeG[uint16]
	count    int
}

func NewSeenSet() *SeenSet {
	return &SeenSet{segments: make(map[segment.SegmentID]*btree.BTreeG[uint16])}
}

func crop(offset uint32) uint16 {
	return uint16(offset >> segment.RecordAlignBits)
}

// MarkSeen records id, returning true if it was not seen before.
func (s *SeenSet) MarkSeen(id segment.RecordID) bool {
	offsets, ok := s.segments[id.Segment]
	if !ok {
		offsets = btree.NewOrderedG[uint16](seenDegree)
		s.segments[id.Segment] = offsets
	}
	if _, replaced := offsets.ReplaceOrInsert(crop(id.Offset)); replaced {
		return false
	}
	s.count++
	return true
}

// Contains returns true if id has been seen.
func (s *SeenSet) Contains(id segment.RecordID) bool {
	offsets, ok := s.segments[id.Segment]
	return ok && offsets.Has(crop(id.Offset))
}

// Len returns the number of distinct records seen.
func (s *SeenSet) Len() int {
	return s.count
}
