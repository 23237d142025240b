// Package app provides the application context and dependency management
// for the cdsmap CLI. It centralizes configuration, logging, and the
// loaders that commands reach through appcontext.Interface.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mc2-center/mc2-data-models/internal/appcontext"
	"github.com/mc2-center/mc2-data-models/internal/release"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

// App represents the cdsmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
}

var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
// Configuration is loaded from the environment and config file, and can
// be overridden using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// ReleaseFile returns the default release file.
func (a *App) ReleaseFile() string {
	return a.config.ReleaseFile
}

// LoadRelease reads a release file, falling back to the configured default.
func (a *App) LoadRelease(path string) (*release.Config, error) {
	if path == "" {
		path = a.config.ReleaseFile
	}
	return release.Load(path)
}

// LoadMapping reads a mapping specification document.
func (a *App) LoadMapping(path string) (*mapping.Document, error) {
	return mapping.LoadFile(path)
}

// LoadValueSets reads a value-set table. An empty sheet uses the
// configured default.
func (a *App) LoadValueSets(path, sheet string, opts ...vocabulary.Option) (*vocabulary.Cache, error) {
	if sheet == "" {
		sheet = a.config.ValueSetSheet
	}
	return appcontext.LoadValueSets(path, sheet, opts...)
}

// Shutdown performs graceful shutdown of the application. Release runs
// stop on context cancellation, so there is nothing left to release here.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Shutdown complete")
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
