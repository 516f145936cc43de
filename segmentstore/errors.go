package segmentstore

import (
	"errors"

	"github.com/forestrie/go-segmentusage/segment"
)

var (
	// ErrSegmentNotFound is segment.ErrSegmentNotFound, so that callers of a
	// segment.Reader need not know which store produced the error.
	ErrSegmentNotFound = segment.ErrSegmentNotFound

	ErrPathIsNotDir        = errors.New("segmentstore: expected the path to be an existing directory")
	ErrStoreLocked         = errors.New("segmentstore: the store directory is locked by a writer")
	ErrContainerVersion    = errors.New("segmentstore: unsupported segment container version")
	ErrBadContainer        = errors.New("segmentstore: segment container is badly formed")
	ErrSegmentIDMismatch   = errors.New("segmentstore: the container holds a different segment than requested")
	ErrLoaderNotConfigured = errors.New("segmentstore: a segment loader must be provided")
)
