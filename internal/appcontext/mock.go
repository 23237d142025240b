package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/mc2-center/mc2-data-models/internal/release"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method falls back to a default: loaders
// read from disk and the logger discards everything.
type Mock struct {
	LoggerFunc        func() *zerolog.Logger
	OutputFormatFunc  func() string
	ReleaseFileFunc   func() string
	LoadReleaseFunc   func(path string) (*release.Config, error)
	LoadMappingFunc   func(path string) (*mapping.Document, error)
	LoadValueSetsFunc func(path, sheet string, opts ...vocabulary.Option) (*vocabulary.Cache, error)
	VersionFunc       func() string
	CommitFunc        func() string
	DateFunc          func() string
	BuiltByFunc       func() string
}

var _ Interface = (*Mock)(nil)

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// ReleaseFile returns the release file using the mock function or "release.yaml".
func (m *Mock) ReleaseFile() string {
	if m.ReleaseFileFunc != nil {
		return m.ReleaseFileFunc()
	}
	return "release.yaml"
}

// LoadRelease reads a release file using the mock function or release.Load.
func (m *Mock) LoadRelease(path string) (*release.Config, error) {
	if m.LoadReleaseFunc != nil {
		return m.LoadReleaseFunc(path)
	}
	return release.Load(path)
}

// LoadMapping reads a mapping document using the mock function or mapping.LoadFile.
func (m *Mock) LoadMapping(path string) (*mapping.Document, error) {
	if m.LoadMappingFunc != nil {
		return m.LoadMappingFunc(path)
	}
	return mapping.LoadFile(path)
}

// LoadValueSets returns a cache using the mock function or LoadValueSets.
func (m *Mock) LoadValueSets(path, sheet string, opts ...vocabulary.Option) (*vocabulary.Cache, error) {
	if m.LoadValueSetsFunc != nil {
		return m.LoadValueSetsFunc(path, sheet, opts...)
	}
	return LoadValueSets(path, sheet, opts...)
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}
