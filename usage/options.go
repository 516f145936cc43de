package usage

import "github.com/forestrie/go-segmentusage/segment"

const (
	// DefaultMaxDepth bounds the recursion of a traversal. Well formed stores
	// are far shallower, it exists to stop a corrupt store.
	DefaultMaxDepth = 4096
)

type Options struct {
	maxDepth      int
	listLevelSize int
	blockSize     int64
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		maxDepth:      DefaultMaxDepth,
		listLevelSize: segment.ListLevelSize,
		blockSize:     segment.BlockSize,
	}
}

// WithMaxDepth sets the maximum recursion depth of a traversal.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithListLevelSize sets the list fan-out the store was written with.
func WithListLevelSize(n int) Option {
	return func(o *Options) {
		if n > 1 {
			o.listLevelSize = n
		}
	}
}

// WithBlockSize sets the long value block size the store was written with.
func WithBlockSize(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.blockSize = n
		}
	}
}
