package usage

import (
	"context"
	"fmt"

	"github.com/forestrie/go-segmentusage/segment"
)

func (a *Analyser) analyseMap(ctx context.Context, id segment.RecordID, depth int) error {
	if depth > a.opts.maxDepth {
		return fmt.Errorf("%w: map %s", ErrMaxDepthExceeded, id)
	}
	if !a.seen.MarkSeen(id) {
		return nil
	}
	s, err := a.segment(ctx, id)
	if err != nil {
		return err
	}
	m, err := s.ReadMap(id.Offset)
	if err != nil {
		return fmt.Errorf("%w, map %s", err, id)
	}

	switch m.Kind {
	case segment.MapDiff:
		a.usage.Maps += segment.MapDiffSize
		return a.analyseMap(ctx, m.Base, depth+1)

	case segment.MapLeaf:
		a.usage.Maps += int64(segment.MapLeafSize(len(m.Entries)))
		for _, e := range m.Entries {
			if err := a.analyseString(ctx, e.Key); err != nil {
				return err
			}
		}
		return nil

	default:
		a.usage.Maps += int64(segment.MapBranchSize(len(m.Buckets)))
		for _, bucket := range m.Buckets {
			if err := a.analyseMap(ctx, bucket, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
}
