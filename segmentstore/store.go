package segmentstore

import (
	"context"
	"fmt"
	"sync"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-segmentusage/segment"
)

// Loader fetches the container of a sealed segment.
//
// A Loader returns an error wrapping ErrSegmentNotFound if it holds no
// segment for id.
type Loader interface {
	Load(ctx context.Context, id segment.SegmentID) ([]byte, error)
}

// Store is a segment.Reader over a Loader. Segments are sealed, so every
// segment read is cached for the life of the store.
//
// Store is safe for concurrent use.
type Store struct {
	log    logger.Logger
	loader Loader
	codec  dtcbor.CBORCodec

	mu       sync.Mutex
	segments map[segment.SegmentID]*segment.Segment
}

func NewStore(log logger.Logger, loader Loader) (*Store, error) {
	if loader == nil {
		return nil, ErrLoaderNotConfigured
	}
	codec, err := NewCBORCodec()
	if err != nil {
		return nil, err
	}
	return &Store{
		log:      log,
		loader:   loader,
		codec:    codec,
		segments: make(map[segment.SegmentID]*segment.Segment),
	}, nil
}

// ReadSegment returns the segment id, loading and decoding it on first use.
func (s *Store) ReadSegment(ctx context.Context, id segment.SegmentID) (*segment.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seg, ok := s.segments[id]; ok {
		return seg, nil
	}
	data, err := s.loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	seg, err := DecodeSegment(s.codec, data)
	if err != nil {
		return nil, fmt.Errorf("%w, segment %s", err, id)
	}
	if seg.ID() != id {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrSegmentIDMismatch, id, seg.ID())
	}
	s.segments[id] = seg
	s.log.Debugf("ReadSegment: %s: %d bytes, %d refs", id, seg.Size(), len(seg.Refs()))
	return seg, nil
}

// Len returns the number of segments read so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}
