// Package logging provides structured logging for cdsmap using zerolog.
// Human-readable console output is used on terminals and JSON otherwise.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("template", "CDS Genomics").Int("rows", 42).Msg("Table assembled")
//
//	ctx := logging.WithTemplate(context.Background(), "CDS Genomics")
//	logging.FromContext(ctx).Debug().Msg("Executing rules")
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var (
	defaultLogger = newDefaultLogger()

	// Nop discards everything. Library packages default to it.
	Nop = zerolog.Nop()
)

// newDefaultLogger builds the process logger from CDSMAP_LOG_LEVEL (or
// LOG_LEVEL) and LOG_FORMAT.
func newDefaultLogger() zerolog.Logger {
	cfg := DefaultConfig()
	for _, key := range []string{"CDSMAP_LOG_LEVEL", "LOG_LEVEL"} {
		if v := os.Getenv(key); v != "" {
			cfg.Level = v
			break
		}
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	return NewLoggerFromConfig(cfg)
}

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
