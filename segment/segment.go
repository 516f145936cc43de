package segment

import (
	"fmt"
)

const (
	lengthMediumTag  = 0x80
	lengthLongTag    = 0x40
	lengthMediumMask = 0x3fff
	lengthLongMask   = 0x3fffffffffffffff
)

// Segment is a sealed, read-only buffer of records.
//
// Offsets are relative to the start of Data. All reads are bounds checked, a
// truncated or corrupt segment produces ErrOutOfBounds rather than a panic.
type Segment struct {
	id   SegmentID
	refs []SegmentID
	data []byte
}

// NewSegment creates a segment over data. refs lists the foreign segments
// referenced by the records in data, in reference index order (index 1 is
// refs[0]).
func NewSegment(id SegmentID, refs []SegmentID, data []byte) (*Segment, error) {
	if len(data) > MaxSegmentSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrSegmentTooLarge, len(data))
	}
	if len(refs) > MaxSegmentRefs {
		return nil, fmt.Errorf("%w: %d", ErrTooManyRefs, len(refs))
	}
	return &Segment{id: id, refs: refs, data: data}, nil
}

func (s *Segment) ID() SegmentID { return s.id }

func (s *Segment) Refs() []SegmentID { return s.refs }

func (s *Segment) Data() []byte { return s.data }

func (s *Segment) Size() int { return len(s.data) }

// RecordID returns the id of the record at offset in this segment.
func (s *Segment) RecordID(offset uint32) RecordID { return NewRecordID(s.id, offset) }

func (s *Segment) bytes(offset uint32, n int) ([]byte, error) {
	end := uint64(offset) + uint64(n)
	if end > uint64(len(s.data)) {
		return nil, fmt.Errorf("%w: %s offset %d, %d bytes", ErrOutOfBounds, s.id, offset, n)
	}
	return s.data[offset:end], nil
}

// Bytes returns n bytes at offset without copying.
func (s *Segment) Bytes(offset uint32, n int) ([]byte, error) {
	return s.bytes(offset, n)
}

func (s *Segment) ReadUint8(offset uint32) (uint8, error) {
	b, err := s.bytes(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Segment) ReadUint16(offset uint32) (uint16, error) {
	b, err := s.bytes(offset, 2)
	if err != nil {
		return 0, err
	}
	return readU16BE(b), nil
}

func (s *Segment) ReadUint32(offset uint32) (uint32, error) {
	b, err := s.bytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return readU32BE(b), nil
}

func (s *Segment) ReadUint64(offset uint32) (uint64, error) {
	b, err := s.bytes(offset, 8)
	if err != nil {
		return 0, err
	}
	return readU64BE(b), nil
}

// ReadRecordID decodes the record id stored at offset, resolving its
// reference index against this segment's references.
func (s *Segment) ReadRecordID(offset uint32) (RecordID, error) {
	b, err := s.bytes(offset, RecordIDBytes)
	if err != nil {
		return RecordID{}, err
	}
	target := s.id
	if ref := int(b[0]); ref != 0 {
		if ref > len(s.refs) {
			return RecordID{}, fmt.Errorf(
				"%w: index %d, segment %s has %d refs", ErrBadSegmentRef, ref, s.id, len(s.refs))
		}
		target = s.refs[ref-1]
	}
	return NewRecordID(target, uint32(readU16BE(b[1:3]))<<RecordAlignBits), nil
}

// ReadLength decodes the string length header at offset. It returns the
// length and the number of header bytes consumed (1, 2 or 8).
func (s *Segment) ReadLength(offset uint32) (int64, int, error) {
	head, err := s.ReadUint8(offset)
	if err != nil {
		return 0, 0, err
	}
	if head&lengthMediumTag == 0 {
		return int64(head), 1, nil
	}
	if head&lengthLongTag == 0 {
		v, err := s.ReadUint16(offset)
		if err != nil {
			return 0, 0, err
		}
		return int64(v&lengthMediumMask) + SmallLimit, 2, nil
	}
	v, err := s.ReadUint64(offset)
	if err != nil {
		return 0, 0, err
	}
	return int64(v&lengthLongMask) + MediumLimit, 8, nil
}

// LengthHeader returns the encoded string length header for length.
func LengthHeader(length int64) []byte {
	switch {
	case length < SmallLimit:
		return []byte{byte(length)}
	case length < MediumLimit:
		v := uint16(length-SmallLimit) | lengthMediumTag<<8
		return []byte{byte(v >> 8), byte(v)}
	default:
		v := uint64(length-MediumLimit) | (lengthMediumTag|lengthLongTag)<<56
		b := make([]byte, 8)
		writeU64BE(b, v)
		return b
	}
}
