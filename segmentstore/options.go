package segmentstore

import (
	"github.com/datatrails/go-datatrails-common/azblob"
)

const (
	DefaultSegmentSuffix = ".seg"
	DefaultBlobPrefix    = "v1/segments/"
	// LockFileName is the lock file writers of a store directory hold while
	// they add or compact segments.
	LockFileName = ".lock"
)

// Options configures the loaders. Options that do not apply to a loader are
// ignored by it.
type Options struct {
	segmentSuffix string
	blobPrefix    string
	readOpts      []azblob.Option
	lock          bool
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		segmentSuffix: DefaultSegmentSuffix,
		blobPrefix:    DefaultBlobPrefix,
	}
}

func newOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSegmentSuffix sets the file or blob name suffix following the segment id.
func WithSegmentSuffix(suffix string) Option {
	return func(o *Options) {
		o.segmentSuffix = suffix
	}
}

// WithBlobPrefix sets the path under which segment blobs are stored.
func WithBlobPrefix(prefix string) Option {
	return func(o *Options) {
		o.blobPrefix = prefix
	}
}

// WithReadBlobOption adds an option to every blob read.
func WithReadBlobOption(opt azblob.Option) Option {
	return func(o *Options) {
		o.readOpts = append(o.readOpts, opt)
	}
}

// WithLock makes a DirLoader hold a shared lock on the store directory until
// it is closed. Writers take the lock exclusively, so no segment can be added
// or compacted away while an audit is running.
func WithLock() Option {
	return func(o *Options) {
		o.lock = true
	}
}
