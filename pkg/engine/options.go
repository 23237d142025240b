package engine

import (
	"github.com/rs/zerolog"

	"github.com/mc2-center/mc2-data-models/pkg/logging"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Options holds the settings of one execution.
type Options struct {
	LeadingColumn      string
	LeadingValue       table.Value
	ValueSetAttributes []string
	StrictLookup       bool
	Parallelism        int
	Logger             zerolog.Logger
}

func defaultOptions() *Options {
	return &Options{
		Parallelism: 1,
		Logger:      logging.Nop,
	}
}

// Option configures Execute.
type Option func(*Options)

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLeadingColumn prepends a constant column. A rule targeting the same
// name is skipped.
func WithLeadingColumn(name string, value table.Value) Option {
	return func(o *Options) {
		o.LeadingColumn = name
		o.LeadingValue = value
	}
}

// WithValueSetAttributes adds targets whose derived values are resolved
// against the controlled vocabulary, on top of those the spec declares.
func WithValueSetAttributes(targets ...string) Option {
	return func(o *Options) {
		o.ValueSetAttributes = append(o.ValueSetAttributes, targets...)
	}
}

// WithStrictLookup makes a dictionary miss fail instead of yielding null.
func WithStrictLookup(strict bool) Option {
	return func(o *Options) {
		o.StrictLookup = strict
	}
}

// WithParallelism evaluates up to n rules concurrently. Values below 1
// are treated as 1.
func WithParallelism(n int) Option {
	return func(o *Options) {
		if n < 1 {
			n = 1
		}
		o.Parallelism = n
	}
}

// WithLogger sets the logger used for rule-level debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
