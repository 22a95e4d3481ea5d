package kosha

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Compression selects how the key index payload is stored.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses the names produced by Compression.String.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none":
		return CompressionNone, nil
	case "zstd", "":
		return CompressionZstd, nil
	default:
		return 0, errors.Errorf("unknown index compression %q", s)
	}
}

const defaultBufferSize = 64 * 1024

// Options configures a Builder or a Kosha.
type Options struct {
	Logger      logrus.FieldLogger
	BufferSize  int         // data file write buffer, builder only
	Compression Compression // key index payload, builder only
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger. The default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithBufferSize sets the builder's data file write buffer.
func WithBufferSize(n int) Option {
	return func(o *Options) { o.BufferSize = n }
}

// WithCompression sets the builder's key index compression.
func WithCompression(c Compression) Option {
	return func(o *Options) { o.Compression = c }
}

func buildOptions(opts []Option) Options {
	o := Options{
		BufferSize:  defaultBufferSize,
		Compression: CompressionZstd,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	return o
}
