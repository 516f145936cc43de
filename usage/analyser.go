package usage

import (
	"context"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-segmentusage/segment"
)

// Analyser accumulates the space taken by the records reachable from the
// nodes it is given. Records shared between nodes, or reached again from a
// later root, are charged once.
//
// An Analyser is not safe for concurrent use. Use a new Analyser for each
// independent audit.
type Analyser struct {
	log      logger.Logger
	segments segment.Reader
	opts     Options

	seen  *SeenSet
	usage Usage
}

func NewAnalyser(log logger.Logger, segments segment.Reader, opts ...Option) *Analyser {
	a := &Analyser{
		log:      log,
		segments: segments,
		opts:     defaultOptions(),
		seen:     NewSeenSet(),
	}
	for _, o := range opts {
		o(&a.opts)
	}
	return a
}

// AnalyseNode charges the node id and everything reachable from it that has
// not already been charged.
//
// On error the totals include whatever was charged before the failure.
func (a *Analyser) AnalyseNode(ctx context.Context, id segment.RecordID) error {
	if !id.Aligned() {
		return fmt.Errorf("%w: %s", ErrUnalignedRecord, id)
	}
	before := a.usage.Total()
	if err := a.analyseNode(ctx, id, 0); err != nil {
		a.log.Infof("AnalyseNode: %s: %v", id, err)
		return err
	}
	a.log.Debugf("AnalyseNode: %s: %d bytes charged, %d records seen", id, a.usage.Total()-before, a.seen.Len())
	return nil
}

// Usage returns the totals charged so far.
func (a *Analyser) Usage() Usage { return a.usage }

// Seen returns the number of distinct records charged so far.
func (a *Analyser) Seen() int { return a.seen.Len() }

func (a *Analyser) String() string { return a.usage.Report() }

func (a *Analyser) segment(ctx context.Context, id segment.RecordID) (*segment.Segment, error) {
	s, err := a.segments.ReadSegment(ctx, id.Segment)
	if err != nil {
		return nil, fmt.Errorf("%w, record %s", err, id)
	}
	return s, nil
}
