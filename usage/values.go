package usage

import (
	"context"
	"fmt"
	"math"

	"github.com/forestrie/go-segmentusage/segment"
)

// ValueClass is the size class selected by a value header.
type ValueClass uint8

const (
	ValueInvalid ValueClass = iota
	ValueSmall
	ValueMedium
	ValueLong
	ValueExternal
)

func (c ValueClass) String() string {
	switch c {
	case ValueSmall:
		return "small"
	case ValueMedium:
		return "medium"
	case ValueLong:
		return "long"
	case ValueExternal:
		return "external"
	default:
		return "invalid"
	}
}

const (
	// 0xxx xxxx
	smallValueMask = 0x80
	smallValueTag  = 0x00
	// 10xx xxxx
	mediumValueMask = 0xc0
	mediumValueTag  = 0x80
	// 110x xxxx
	longValueMask = 0xe0
	longValueTag  = 0xc0
	// 1110 xxxx
	externalValueMask = 0xf0
	externalValueTag  = 0xe0

	smallLengthMask    = 0x7f
	mediumLengthMask   = 0x3fff
	longLengthMask     = 0x1fffffffffffffff
	externalLengthMask = 0x0f

	smallHeaderBytes    = 1
	mediumHeaderBytes   = 2
	longHeaderBytes     = 8
	externalHeaderBytes = 2
)

// BlobClass returns the size class selected by the first byte of a binary
// value record.
func BlobClass(head byte) ValueClass {
	switch {
	case head&smallValueMask == smallValueTag:
		return ValueSmall
	case head&mediumValueMask == mediumValueTag:
		return ValueMedium
	case head&longValueMask == longValueTag:
		return ValueLong
	case head&externalValueMask == externalValueTag:
		return ValueExternal
	default:
		return ValueInvalid
	}
}

// StringClass returns the size class of a string of length bytes.
func StringClass(length int64) ValueClass {
	switch {
	case length < 0:
		return ValueInvalid
	case length < segment.SmallLimit:
		return ValueSmall
	case length < segment.MediumLimit:
		return ValueMedium
	case length < math.MaxInt32:
		return ValueLong
	default:
		return ValueInvalid
	}
}

// valueHeader is a decoded string or binary header.
type valueHeader struct {
	class  ValueClass
	length int64
	header int
	// blocks is the block list of a long value.
	blocks segment.RecordID
}

// size returns the bytes taken by the value record itself. The block list and
// blocks of a long value are accounted separately.
func (h valueHeader) size() int64 {
	n := int64(h.header) + h.length
	if h.class == ValueLong {
		n += segment.RecordIDBytes
	}
	return n
}

func decodeBlob(s *segment.Segment, offset uint32) (valueHeader, error) {
	head, err := s.ReadUint8(offset)
	if err != nil {
		return valueHeader{}, err
	}
	h := valueHeader{class: BlobClass(head)}
	switch h.class {
	case ValueSmall:
		h.header = smallHeaderBytes
		h.length = int64(head & smallLengthMask)

	case ValueMedium:
		v, err := s.ReadUint16(offset)
		if err != nil {
			return valueHeader{}, err
		}
		h.header = mediumHeaderBytes
		h.length = int64(v&mediumLengthMask) + segment.SmallLimit

	case ValueLong:
		v, err := s.ReadUint64(offset)
		if err != nil {
			return valueHeader{}, err
		}
		h.header = longHeaderBytes
		h.length = int64(v&longLengthMask) + segment.MediumLimit
		if h.blocks, err = s.ReadRecordID(offset + longHeaderBytes); err != nil {
			return valueHeader{}, err
		}

	case ValueExternal:
		low, err := s.ReadUint8(offset + 1)
		if err != nil {
			return valueHeader{}, err
		}
		h.header = externalHeaderBytes
		h.length = int64(head&externalLengthMask)<<8 | int64(low)

	default:
		return valueHeader{}, fmt.Errorf("%w: %02x", ErrBadValueHeader, head)
	}
	return h, nil
}

func decodeString(s *segment.Segment, offset uint32) (valueHeader, error) {
	length, header, err := s.ReadLength(offset)
	if err != nil {
		return valueHeader{}, err
	}
	h := valueHeader{class: StringClass(length), length: length, header: header}
	switch h.class {
	case ValueSmall, ValueMedium:
	case ValueLong:
		if h.blocks, err = s.ReadRecordID(offset + uint32(header)); err != nil {
			return valueHeader{}, err
		}
	default:
		return valueHeader{}, fmt.Errorf("%w: %d", ErrStringTooLong, length)
	}
	return h, nil
}

func (a *Analyser) analyseValue(ctx context.Context, id segment.RecordID, t segment.PropertyType) error {
	if t.IsBinary() {
		return a.analyseBlob(ctx, id)
	}
	return a.analyseString(ctx, id)
}

func (a *Analyser) analyseBlob(ctx context.Context, id segment.RecordID) error {
	if !a.seen.MarkSeen(id) {
		return nil
	}
	s, err := a.segment(ctx, id)
	if err != nil {
		return err
	}
	h, err := decodeBlob(s, id.Offset)
	if err != nil {
		return fmt.Errorf("%w, binary %s", err, id)
	}
	return a.chargeValue(h)
}

func (a *Analyser) analyseString(ctx context.Context, id segment.RecordID) error {
	if !a.seen.MarkSeen(id) {
		return nil
	}
	s, err := a.segment(ctx, id)
	if err != nil {
		return err
	}
	h, err := decodeString(s, id.Offset)
	if err != nil {
		return fmt.Errorf("%w, string %s", err, id)
	}
	return a.chargeValue(h)
}

func (a *Analyser) chargeValue(h valueHeader) error {
	if h.class == ValueLong {
		blocks := (h.length + a.opts.blockSize - 1) / a.opts.blockSize
		if blocks > math.MaxInt32 {
			return fmt.Errorf("%w: %d bytes", ErrValueTooLong, h.length)
		}
		a.analyseList(h.blocks, int(blocks))
	}
	a.usage.Values += h.size()
	return nil
}
