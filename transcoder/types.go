package transcoder

import (
	"github.com/wippyai/protobind/schema"
	"github.com/wippyai/protobind/wire"
	"go.uber.org/zap"
)

// Config holds the settings shared by an Encoder and a Decoder.
type Config struct {
	// Pool resolves Go types to message descriptors. Required.
	Pool *schema.Pool

	// Logger receives field diagnostics at Warn level.
	Logger *zap.Logger

	// Diagnostics, when set, is called with every skipped-field error.
	Diagnostics func(error)

	// MaxDepth bounds struct nesting; cyclic Go values abort the call
	// once it is exceeded.
	MaxDepth int
}

// DefaultConfig returns a configuration for pool p.
func DefaultConfig(p *schema.Pool) Config {
	return Config{
		Pool:     p,
		Logger:   Logger(),
		MaxDepth: wire.MaxDepth,
	}
}

func (c Config) normalize() Config {
	if c.Logger == nil {
		c.Logger = Logger()
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = wire.MaxDepth
	}
	return c
}
