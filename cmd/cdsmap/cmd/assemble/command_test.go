package assemble

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mc2-center/mc2-data-models/internal/appcontext"
	"github.com/mc2-center/mc2-data-models/internal/release"
	"github.com/mc2-center/mc2-data-models/internal/release/releasetest"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
)

func execute(t *testing.T, app appcontext.Interface, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAssemble_DryRunJSON(t *testing.T) {
	path := releasetest.Fixture(t)
	app := &appcontext.Mock{OutputFormatFunc: func() string { return "json" }}

	stdout, stderr, err := execute(t, app, path, "--dry-run")
	require.NoError(t, err)

	var got Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.NotEmpty(t, got.RunID)
	require.Len(t, got.Reports, 1)
	assert.Equal(t, "CDS Genomics", got.Reports[0].Template)
	assert.Equal(t, "ok", got.Reports[0].Status)
	assert.Equal(t, 2, got.Reports[0].Rows)
	assert.Equal(t, []string{"CDS Imaging Participant Information"}, got.Skipped)
	assert.Empty(t, got.Written)

	require.NotNil(t, got.Narrative)
	assert.Equal(t, 2, got.Narrative.Files)
	assert.Equal(t, 1, got.Narrative.NewParticipants)
	assert.Contains(t, got.Narrative.Text, "genomics data")

	assert.Contains(t, stderr, `"level": "warning"`)
	assert.Contains(t, stderr, "nothing written")
}

func TestAssemble_Table(t *testing.T) {
	path := releasetest.Fixture(t)
	app := &appcontext.Mock{
		OutputFormatFunc: func() string { return "table" },
		ReleaseFileFunc:  func() string { return path },
	}

	stdout, stderr, err := execute(t, app)
	require.NoError(t, err)

	assert.Contains(t, stdout, "CDS Genomics")
	assert.Contains(t, stdout, "Narrative: This transfer contains genomics data")
	assert.Contains(t, stderr, "! CDS Imaging Participant Information: skipped")
	assert.Contains(t, stderr, "files written")
	assert.Contains(t, stderr, "CDS_Genomics_b1.csv")
}

func TestAssemble_TemplateFlag(t *testing.T) {
	path := releasetest.Fixture(t)
	app := &appcontext.Mock{OutputFormatFunc: func() string { return "json" }}

	stdout, _, err := execute(t, app, path, "--dry-run", "-t", "CDS Imaging Participant Information")
	require.NoError(t, err)

	var got Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Empty(t, got.Reports)
	assert.Equal(t, []string{"CDS Imaging Participant Information"}, got.Skipped)
}

func TestAssemble_FailedTemplate(t *testing.T) {
	path := releasetest.Fixture(t)
	app := &appcontext.Mock{
		OutputFormatFunc: func() string { return "table" },
		LoadReleaseFunc: func(p string) (*release.Config, error) {
			cfg, err := release.Load(p)
			if err != nil {
				return nil, err
			}
			cfg.Templates = append(cfg.Templates, release.TemplateConfig{Name: "CDS Nope", Source: "merged"})
			return cfg, nil
		},
	}

	stdout, stderr, err := execute(t, app, path, "--dry-run")
	require.Error(t, err)
	assert.True(t, errors.IsSpecNotFound(err))
	assert.Contains(t, stdout, "CDS Nope")
	assert.Contains(t, stderr, "✗ CDS Nope")
}

func TestAssemble_Errors(t *testing.T) {
	t.Run("invalid format", func(t *testing.T) {
		app := &appcontext.Mock{OutputFormatFunc: func() string { return "xml" }}
		_, _, err := execute(t, app, "release.yaml")
		assert.ErrorContains(t, err, "invalid format")
	})

	t.Run("missing release", func(t *testing.T) {
		app := &appcontext.Mock{OutputFormatFunc: func() string { return "json" }}
		_, _, err := execute(t, app, "does-not-exist.yaml")
		require.Error(t, err)
		assert.True(t, errors.IsIOError(err))
	})
}
