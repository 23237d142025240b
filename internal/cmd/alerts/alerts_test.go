package alerts

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mc2-center/mc2-data-models/internal/cmd/output"
)

func TestAlert_String(t *testing.T) {
	a := NewError("CDS Genomics").WithError(errors.New("boom"))
	assert.Equal(t, "✗ CDS Genomics: boom", a.String())
	assert.Equal(t, "✓ done", NewSuccess("done").String())
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "unknown(9)", Level(9).String())
}

func TestFormatWriter_Plain(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatTable)

	require.NoError(t, w.WriteAlert(NewWarning("skipped").WithDetails("no rows", "filter matched nothing")))
	assert.Equal(t, "! skipped\n   no rows\n   filter matched nothing\n", buf.String())

	buf.Reset()
	w.WithConfig(WriterConfig{UseColor: true})
	require.NoError(t, w.WriteAlert(NewInfo("x").WithDetails("hidden")))
	assert.Equal(t, "\033[36m- x\033[0m\n", buf.String())
}

func TestFormatWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatJSON)
	require.NoError(t, w.WriteAlert(NewError("failed").WithError(errors.New("missing column"))))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "error", got["level"])
	assert.Equal(t, "missing column", got["error"])
	assert.NotContains(t, got, "details")
}

func TestFormatWriter_YAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatYAML)
	require.NoError(t, WriteAll(w, NewSuccess("a"), NewSuccess("b")))
	assert.Equal(t, "---\nlevel: success\nmessage: a\n---\nlevel: success\nmessage: b\n", buf.String())
}

func TestWriteAll_StopsOnError(t *testing.T) {
	calls := 0
	w := WriterFunc(func(*Alert) error {
		calls++
		return errors.New("closed")
	})
	assert.Error(t, WriteAll(w, NewInfo("a"), NewInfo("b")))
	assert.Equal(t, 1, calls)
	assert.NoError(t, WriteAll(DiscardWriter, NewInfo("a")))
}
