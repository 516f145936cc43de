package segmentstore

import (
	"fmt"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	"github.com/forestrie/go-segmentusage/segment"
	"github.com/google/uuid"
)

const ContainerVersion = 1

// Container is the stored form of a sealed segment: the segment's record data
// together with the identities of the segments its record ids reference.
type Container struct {
	Version uint8    `cbor:"1,keyasint"`
	ID      []byte   `cbor:"2,keyasint"`
	Refs    [][]byte `cbor:"3,keyasint"`
	Data    []byte   `cbor:"4,keyasint"`
}

func NewCBORCodec() (dtcbor.CBORCodec, error) {
	codec, err := dtcbor.NewCBORCodec(
		dtcbor.NewDeterministicEncOpts(),
		dtcbor.NewDeterministicDecOpts(),
	)
	if err != nil {
		return dtcbor.CBORCodec{}, err
	}
	return codec, nil
}

// EncodeSegment returns the container encoding of s.
func EncodeSegment(codec dtcbor.CBORCodec, s *segment.Segment) ([]byte, error) {
	id := s.ID()
	c := Container{
		Version: ContainerVersion,
		ID:      id[:],
		Refs:    make([][]byte, 0, len(s.Refs())),
		Data:    s.Data(),
	}
	for _, ref := range s.Refs() {
		c.Refs = append(c.Refs, ref[:])
	}
	return codec.MarshalCBOR(c)
}

// DecodeSegment decodes a segment container.
func DecodeSegment(codec dtcbor.CBORCodec, data []byte) (*segment.Segment, error) {
	var c Container
	if err := codec.UnmarshalInto(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadContainer, err)
	}
	if c.Version != ContainerVersion {
		return nil, fmt.Errorf("%w: %d", ErrContainerVersion, c.Version)
	}
	id, err := segmentID(c.ID)
	if err != nil {
		return nil, err
	}
	refs := make([]segment.SegmentID, 0, len(c.Refs))
	for _, b := range c.Refs {
		ref, err := segmentID(b)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return segment.NewSegment(id, refs, c.Data)
}

func segmentID(b []byte) (segment.SegmentID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return segment.SegmentID{}, fmt.Errorf("%w: segment id: %v", ErrBadContainer, err)
	}
	return segment.SegmentID(u), nil
}
