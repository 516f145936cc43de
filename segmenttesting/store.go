package segmenttesting

import (
	"context"
	"fmt"
	"testing"

	"github.com/forestrie/go-segmentusage/segment"
)

// Store is an in-memory segment.Reader over the segments sealed by its
// builders.
type Store struct {
	segments map[segment.SegmentID]*segment.Segment

	// Reads counts ReadSegment calls.
	Reads int
}

func NewStore() *Store {
	return &Store{segments: make(map[segment.SegmentID]*segment.Segment)}
}

// NewBuilder starts a new segment whose Seal adds it to this store.
func (s *Store) NewBuilder(t testing.TB, opts ...BuilderOption) *Builder {
	return newBuilder(t, s, opts...)
}

func (s *Store) Add(seg *segment.Segment) {
	s.segments[seg.ID()] = seg
}

func (s *Store) Segments() []*segment.Segment {
	out := make([]*segment.Segment, 0, len(s.segments))
	for _, seg := range s.segments {
		out = append(out, seg)
	}
	return out
}

func (s *Store) ReadSegment(_ context.Context, id segment.SegmentID) (*segment.Segment, error) {
	s.Reads++
	seg, ok := s.segments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", segment.ErrSegmentNotFound, id)
	}
	return seg, nil
}
