package segmentstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/datatrails/go-datatrails-common/azblob"
)

// BlobReader is the part of azblob.Reader needed to read segment blobs.
type BlobReader interface {
	Reader(
		ctx context.Context,
		identity string,
		opts ...azblob.Option,
	) (*azblob.ReaderResponse, error)
}

// SegmentBlobContext holds a segment blob and the metadata returned with it.
type SegmentBlobContext struct {
	BlobPath      string
	ETag          string
	LastRead      time.Time
	LastModified  time.Time
	Data          []byte
	ContentLength int64
}

// ReadData reads the blob at BlobPath. On return Data holds the blob contents
// and the metadata fields are populated from the blob store response.
func (bc *SegmentBlobContext) ReadData(ctx context.Context, store BlobReader, opts ...azblob.Option) error {
	rr, err := store.Reader(ctx, bc.BlobPath, opts...)
	if err != nil {
		return err
	}
	if rr.Reader == nil {
		return fmt.Errorf("%w: no content, %s", ErrBadContainer, bc.BlobPath)
	}
	defer rr.Reader.Close()

	if bc.Data, err = io.ReadAll(rr.Reader); err != nil {
		return err
	}
	if rr.ETag != nil {
		bc.ETag = *rr.ETag
	}
	if rr.LastModified != nil {
		bc.LastModified = *rr.LastModified
	}
	bc.LastRead = time.Now()
	bc.ContentLength = rr.ContentLength
	return nil
}

var _ BlobReader = azblob.Reader(nil)
