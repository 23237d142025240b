package assemble

import (
	"github.com/rs/zerolog"

	"github.com/mc2-center/mc2-data-models/pkg/engine"
	"github.com/mc2-center/mc2-data-models/pkg/logging"
)

// Options configures an Assembler.
type Options struct {
	FailFast    bool
	Parallelism int
	Logger      zerolog.Logger
	Engine      []engine.Option
}

func defaultOptions() *Options {
	return &Options{
		Parallelism: 1,
		Logger:      logging.Nop,
	}
}

// Option configures an Assembler.
type Option func(*Options)

// WithFailFast stops at the first failing template instead of attempting
// every template.
func WithFailFast(failFast bool) Option {
	return func(o *Options) {
		o.FailFast = failFast
	}
}

// WithParallelism assembles up to n templates concurrently. Results are
// still reported in request order.
func WithParallelism(n int) Option {
	return func(o *Options) {
		if n < 1 {
			n = 1
		}
		o.Parallelism = n
	}
}

// WithLogger sets the logger for per-template progress.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithEngineOptions passes options to every template execution.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *Options) {
		o.Engine = append(o.Engine, opts...)
	}
}
