// Package config loads the settings of a usage audit from YAML.
package config

import (
	"errors"
	"os"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-segmentusage/segment"
	"github.com/forestrie/go-segmentusage/segmentstore"
	"github.com/forestrie/go-segmentusage/usage"
	"gopkg.in/yaml.v3"
)

var ErrNoBlobReader = errors.New("config: store.dir is not set and no blob reader was provided")

type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Analyser AnalyserConfig `yaml:"analyser"`
}

type StoreConfig struct {
	// Dir is a local store directory. When empty, segments are read from blob
	// storage under BlobPrefix.
	Dir           string `yaml:"dir"`
	BlobPrefix    string `yaml:"blob_prefix"`
	SegmentSuffix string `yaml:"segment_suffix"`
	// Lock holds a shared lock on Dir for the duration of the audit.
	Lock bool `yaml:"lock"`
}

type AnalyserConfig struct {
	MaxDepth      int   `yaml:"max_depth"`
	ListLevelSize int   `yaml:"list_level_size"`
	BlockSize     int64 `yaml:"block_size"`
}

// DefaultConfig returns a Config reading blobs from the default prefix with
// the default record format parameters.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			BlobPrefix:    segmentstore.DefaultBlobPrefix,
			SegmentSuffix: segmentstore.DefaultSegmentSuffix,
		},
		Analyser: AnalyserConfig{
			MaxDepth:      usage.DefaultMaxDepth,
			ListLevelSize: segment.ListLevelSize,
			BlockSize:     segment.BlockSize,
		},
	}
}

// FillDefaults sets any zero value fields to their default values.
func (c *Config) FillDefaults() {
	def := DefaultConfig()
	if c.Store.Dir == "" && c.Store.BlobPrefix == "" {
		c.Store.BlobPrefix = def.Store.BlobPrefix
	}
	if c.Store.SegmentSuffix == "" {
		c.Store.SegmentSuffix = def.Store.SegmentSuffix
	}
	if c.Analyser.MaxDepth <= 0 {
		c.Analyser.MaxDepth = def.Analyser.MaxDepth
	}
	if c.Analyser.ListLevelSize <= 1 {
		c.Analyser.ListLevelSize = def.Analyser.ListLevelSize
	}
	if c.Analyser.BlockSize <= 0 {
		c.Analyser.BlockSize = def.Analyser.BlockSize
	}
}

// Load reads the YAML file at path. Settings missing from the file take
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.FillDefaults()
	return cfg, nil
}

func (c *Config) AnalyserOptions() []usage.Option {
	return []usage.Option{
		usage.WithMaxDepth(c.Analyser.MaxDepth),
		usage.WithListLevelSize(c.Analyser.ListLevelSize),
		usage.WithBlockSize(c.Analyser.BlockSize),
	}
}

func (c *Config) StoreOptions() []segmentstore.Option {
	opts := []segmentstore.Option{
		segmentstore.WithSegmentSuffix(c.Store.SegmentSuffix),
	}
	if c.Store.BlobPrefix != "" {
		opts = append(opts, segmentstore.WithBlobPrefix(c.Store.BlobPrefix))
	}
	if c.Store.Lock {
		opts = append(opts, segmentstore.WithLock())
	}
	return opts
}

// NewLoader returns a DirLoader over Store.Dir if it is set, otherwise a
// BlobLoader over blobs.
func (c *Config) NewLoader(log logger.Logger, blobs segmentstore.BlobReader) (segmentstore.Loader, error) {
	if c.Store.Dir != "" {
		l, err := segmentstore.NewDirLoader(log, c.Store.Dir, c.StoreOptions()...)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	if blobs == nil {
		return nil, ErrNoBlobReader
	}
	return segmentstore.NewBlobLoader(log, blobs, c.StoreOptions()...), nil
}
