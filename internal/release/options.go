package release

import (
	"github.com/rs/zerolog"
)

// Options configures a release run.
type Options struct {
	Logger zerolog.Logger
	// DryRun assembles every table without writing any file.
	DryRun bool
	// Templates restricts the run to templates matching these names or
	// glob/regex patterns.
	Templates []string
}

// Option configures a release run.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{Logger: zerolog.Nop()}
}

// WithLogger sets the logger used for stage progress.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithDryRun skips every write.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithTemplates restricts the run to templates matching names. Each name
// is an exact template name or a case-insensitive glob or regex pattern.
func WithTemplates(names ...string) Option {
	return func(o *Options) {
		o.Templates = names
	}
}
