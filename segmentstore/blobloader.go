package segmentstore

import (
	"context"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-segmentusage/segment"
)

// BlobLoader loads segment containers from blob storage, one blob per segment
// named by segment id under a common prefix.
type BlobLoader struct {
	log   logger.Logger
	store BlobReader
	opts  Options
}

func NewBlobLoader(log logger.Logger, store BlobReader, opts ...Option) *BlobLoader {
	return &BlobLoader{log: log, store: store, opts: newOptions(opts...)}
}

// BlobPath returns the path of the blob holding segment id.
func (l *BlobLoader) BlobPath(id segment.SegmentID) string {
	return l.opts.blobPrefix + id.String() + l.opts.segmentSuffix
}

func (l *BlobLoader) Load(ctx context.Context, id segment.SegmentID) ([]byte, error) {
	bc := SegmentBlobContext{BlobPath: l.BlobPath(id)}
	if err := bc.ReadData(ctx, l.store, l.opts.readOpts...); err != nil {
		return nil, wrapBlobNotFound(err, bc.BlobPath)
	}
	l.log.Debugf("Load: %s: %d bytes, etag %s", bc.BlobPath, len(bc.Data), bc.ETag)
	return bc.Data, nil
}
