package segment

import (
	"context"
	"errors"
)

const (
	// RecordIDBytes is the encoded width of a record id.
	RecordIDBytes = 3

	// RecordAlignBits is the alignment of record offsets, as a power of two.
	RecordAlignBits = 2
	RecordAlign     = 1 << RecordAlignBits

	// MaxSegmentSize is the largest segment addressable by a record id offset.
	MaxSegmentSize = 1 << (16 + RecordAlignBits)

	// MaxSegmentRefs is the number of foreign segments a segment may reference.
	// Index 0 of a record id is reserved for the containing segment.
	MaxSegmentRefs = 255

	// SmallLimit bounds the values whose length fits a 1 byte header.
	SmallLimit = 1 << 7

	// MediumLimit bounds the values whose length fits a 2 byte header.
	MediumLimit = (1 << 14) + SmallLimit

	// BlockSize is the chunk size of long values.
	BlockSize = 1 << 12

	// ListLevelSize is the fan-out of list records.
	ListLevelSize = 1 << 8
)

var (
	ErrSegmentTooLarge  = errors.New("segment: data exceeds the maximum segment size")
	ErrTooManyRefs      = errors.New("segment: too many segment references")
	ErrOutOfBounds      = errors.New("segment: read outside of segment data")
	ErrBadSegmentRef    = errors.New("segment: record id names an unknown segment reference")
	ErrUnalignedRecord  = errors.New("segment: record offset is not aligned")
	ErrBadPropertyType  = errors.New("segment: invalid property type")
	ErrBadTemplate      = errors.New("segment: invalid template record")
	ErrBadMapRecord     = errors.New("segment: invalid map record")
	ErrBadListSize      = errors.New("segment: invalid list size")
	ErrStringTooLong    = errors.New("segment: string is too long")
	ErrSegmentNotFound  = errors.New("segment: segment not found")
	ErrTemplateOverflow = errors.New("segment: template counts overflow the header fields")
	ErrMapSizeOverflow  = errors.New("segment: map size overflows the header field")
)

// Reader resolves segment identities to segments.
//
// Implementations are provided by the store holding the segments. The
// segments returned must be sealed, they are never modified once read.
type Reader interface {
	ReadSegment(ctx context.Context, id SegmentID) (*Segment, error)
}
