package templates

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mc2-center/mc2-data-models/internal/appcontext"
	"github.com/mc2-center/mc2-data-models/internal/cmd/output"
	"github.com/mc2-center/mc2-data-models/internal/release/releasetest"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
)

func execute(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	path := releasetest.Fixture(t)
	app := &appcontext.Mock{
		OutputFormatFunc: func() string { return format },
		ReleaseFileFunc:  func() string { return path },
	}
	var stdout bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestTemplates_List(t *testing.T) {
	stdout, err := execute(t, "json")
	require.NoError(t, err)

	var got []output.Template
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "CDS Genomics", got[0].Name)
	assert.Equal(t, []string{"primary_diagnosis"}, got[0].ValueSets)
	assert.Empty(t, got[0].Error)
}

func TestTemplates_Rules(t *testing.T) {
	stdout, err := execute(t, "json", "CDS Genomics")
	require.NoError(t, err)

	var got []output.Rule
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.NotEmpty(t, got)
	assert.Equal(t, "phs_accession", got[0].Target)
	assert.Equal(t, "Unmapped", got[0].Kind)

	byTarget := make(map[string]output.Rule, len(got))
	for _, r := range got {
		byTarget[r.Target] = r
	}
	assert.Equal(t, 2, byTarget["sex"].Entries)
	assert.Equal(t, "Gender", byTarget["sex"].Source)
	assert.Contains(t, byTarget["age_at_diagnosis"].Transform, "scale")
	assert.True(t, byTarget["primary_diagnosis"].ValueSet)
}

func TestTemplates_RulesTable(t *testing.T) {
	stdout, err := execute(t, "table", "CDS Genomics")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 entries")
	assert.Contains(t, stdout, "Genomic")
}

func TestTemplates_Unknown(t *testing.T) {
	_, err := execute(t, "json", "CDS Nope")
	require.Error(t, err)
	assert.True(t, errors.IsSpecNotFound(err))
}

func TestTemplates_Ops(t *testing.T) {
	stdout, err := execute(t, "json", "--ops")
	require.NoError(t, err)

	var got []string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Contains(t, got, "trim")
	assert.Contains(t, got, "template")
}

func TestTemplates_MappingFlag(t *testing.T) {
	path := filepath.Join(releasetest.Dir(), "mappings.yaml")
	stdout, err := execute(t, "json", "--mapping", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "CDS Imaging Participant Information")
}
