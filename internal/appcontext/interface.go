// Package appcontext provides the shared application context interface
// used by all commands, so command packages depend on an interface rather
// than on the concrete CLI application.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/mc2-center/mc2-data-models/internal/release"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

// Interface defines what commands need from the application. The App
// struct from cmd/cdsmap/app implements it; tests use Mock.
type Interface interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, csv).
	OutputFormat() string

	// ReleaseFile returns the release file used when a command is given none.
	ReleaseFile() string

	// LoadRelease reads a release file.
	LoadRelease(path string) (*release.Config, error)

	// LoadMapping reads a mapping specification document.
	LoadMapping(path string) (*mapping.Document, error)

	// LoadValueSets reads a value-set table from a workbook sheet or CSV
	// file and returns a vocabulary cache over it.
	LoadValueSets(path, sheet string, opts ...vocabulary.Option) (*vocabulary.Cache, error)

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
