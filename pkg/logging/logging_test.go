package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNewLoggerFromConfig_FileOutput(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(oldLevel) })

	path := filepath.Join(t.TempDir(), "cdsmap.log")
	logger := NewLoggerFromConfig(&Config{
		Level:  "info",
		Format: "json",
		Output: path,
		Fields: map[string]any{"package_id": "v24.4.1.seq"},
	})

	logger.Info().Str("template", "CDS Genomics").Msg("assembled")
	logger.Debug().Msg("hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"package_id":"v24.4.1.seq"`)
	assert.Contains(t, string(data), `"template":"CDS Genomics"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), &logger)
	ctx = WithRelease(ctx, "v24.3.1.img")
	ctx = WithTemplate(ctx, "CDS Imaging Multiplex Microscopy")
	ctx = WithStage(ctx, "assemble")

	FromContext(ctx).Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"package_id":"v24.3.1.img"`)
	assert.Contains(t, out, `"template":"CDS Imaging Multiplex Microscopy"`)
	assert.Contains(t, out, `"stage":"assemble"`)
}

func TestFromContext_Defaults(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Equal(t, Default(), FromContext(nil))
	assert.Equal(t, Default(), FromContext(context.Background()))
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger(t)
	tl.Info().Str("template", "CDS Genomics").Msg("first")
	tl.Warn().Msg("second")

	assert.Len(t, tl.Lines(), 2)
	assert.Equal(t, []string{"first", "second"}, tl.Messages())
	assert.Equal(t, "warn", tl.Entries()[1]["level"])
	tl.AssertContains(t, "CDS Genomics")
	tl.AssertNotContains(t, "third")
}

func TestDefaultLogger_Env(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(oldLevel) })

	t.Setenv("CDSMAP_LOG_LEVEL", "warn")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	logger := newDefaultLogger()
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}
