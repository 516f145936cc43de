package segment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SegmentID is the identity of a sealed segment.
type SegmentID uuid.UUID

// NewSegmentID returns a new random segment identity.
func NewSegmentID() SegmentID {
	return SegmentID(uuid.New())
}

// ParseSegmentID parses the canonical string form of a segment identity.
func ParseSegmentID(s string) (SegmentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SegmentID{}, err
	}
	return SegmentID(u), nil
}

func (id SegmentID) String() string {
	return uuid.UUID(id).String()
}

// RecordID addresses one physical record. RecordIDs are comparable and may be
// used as map keys.
type RecordID struct {
	Segment SegmentID
	Offset  uint32
}

func NewRecordID(segment SegmentID, offset uint32) RecordID {
	return RecordID{Segment: segment, Offset: offset}
}

// ParseRecordID parses the "segment:offset" form produced by String.
func ParseRecordID(s string) (RecordID, error) {
	segment, offset, ok := strings.Cut(s, ":")
	if !ok {
		return RecordID{}, fmt.Errorf("invalid record id %q", s)
	}
	id, err := ParseSegmentID(segment)
	if err != nil {
		return RecordID{}, err
	}
	off, err := strconv.ParseUint(offset, 10, 32)
	if err != nil {
		return RecordID{}, err
	}
	return NewRecordID(id, uint32(off)), nil
}

func (r RecordID) String() string {
	return fmt.Sprintf("%s:%d", r.Segment, r.Offset)
}

// Aligned returns true if the offset can be encoded in a record id.
func (r RecordID) Aligned() bool {
	return r.Offset&(RecordAlign-1) == 0 && r.Offset < MaxSegmentSize
}

// Add returns the id of the record delta bytes further into the same segment.
func (r RecordID) Add(delta int) RecordID {
	return RecordID{Segment: r.Segment, Offset: r.Offset + uint32(delta)}
}

// PutRecordID writes the wire form of a record id. refIndex 0 names the
// segment being written.
func PutRecordID(dst []byte, refIndex uint8, offset uint32) error {
	if offset&(RecordAlign-1) != 0 || offset >= MaxSegmentSize {
		return fmt.Errorf("%w: %d", ErrUnalignedRecord, offset)
	}
	dst[0] = refIndex
	writeU16BE(dst[1:3], uint16(offset>>RecordAlignBits))
	return nil
}
