package segmenttesting

import (
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
)

type TestContext struct {
	Log   logger.Logger
	Store *Store
	T     *testing.T
}

type TestConfig struct {
	TestLabelPrefix string
	// LogLevel defaults to NOOP, set INFO or DEBUG to see store and analyser logs.
	LogLevel string
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	level := cfg.LogLevel
	if level == "" {
		level = "NOOP"
	}
	logger.New(level)

	return TestContext{
		T:     t,
		Log:   logger.Sugar.WithServiceName(cfg.TestLabelPrefix),
		Store: NewStore(),
	}
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// NewBuilder starts a new segment in the context's store.
func (c *TestContext) NewBuilder(opts ...BuilderOption) *Builder {
	return c.Store.NewBuilder(c.T, opts...)
}
