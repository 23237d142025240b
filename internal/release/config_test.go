package release_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mc2-center/mc2-data-models/internal/release"
	"github.com/mc2-center/mc2-data-models/internal/release/releasetest"
	"github.com/mc2-center/mc2-data-models/pkg/constants"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

func TestLoad(t *testing.T) {
	path := releasetest.Fixture(t)
	dir := filepath.Dir(path)

	cfg, err := release.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "b1", cfg.PackageID)
	assert.Equal(t, "phs002371.v6.p1", cfg.PHSAccession)
	assert.Equal(t, "Release 6.0", cfg.DataRelease)
	assert.Equal(t, filepath.Join(dir, "mappings.yaml"), cfg.Mapping)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output.Dir)
	assert.Equal(t, []string{"csv", "yaml"}, cfg.Output.Formats)
	assert.True(t, cfg.Output.Merged)
	assert.Equal(t, constants.ValueSetSheet, cfg.ValueSets.Sheet, "default sheet")
	assert.Equal(t, 1, cfg.Parallelism)

	require.Len(t, cfg.Sources, 3)
	assert.Equal(t, filepath.Join(dir, "files.csv"), cfg.Sources[0].Path)
	assert.True(t, cfg.Sources[0].UnderscoreHeaders)

	require.Len(t, cfg.Enrich, 1)
	steps := cfg.Enrich[0].Steps
	require.Len(t, steps, 5)
	assert.Equal(t, "HTAN_Parent_Biospecimen_ID", steps[0].Column, "step fields keep their case")
	assert.Equal(t, "derive", steps[4].Type)
	assert.NotNil(t, steps[4].Transform)

	require.Len(t, cfg.Templates, 2)
	assert.Equal(t, "CDS Genomics", cfg.Templates[0].Name)
	assert.Equal(t, constants.AccessionColumn, cfg.Templates[0].LeadingColumn)
	require.NotNil(t, cfg.Templates[1].Filter)
	assert.Equal(t, "Component", cfg.Templates[1].Filter.Column)
	assert.True(t, cfg.Templates[1].SkipEmpty)

	require.NotNil(t, cfg.DBGaP)
	assert.Equal(t, "consent", cfg.DBGaP.ExistingConsent)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CDSMAP_PACKAGE_ID", "from_env")
	cfg, err := release.Load(releasetest.Fixture(t))
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.PackageID)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := release.Load(filepath.Join(t.TempDir(), "release.yaml"))
		assert.True(t, errors.IsIOError(err))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "release.yaml")
		require.NoError(t, os.WriteFile(path, []byte("package_id: [unclosed\n"), 0o644))
		_, err := release.Load(path)
		assert.True(t, errors.IsParseError(err))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*release.Config)
		want   string
	}{
		{"package id", func(c *release.Config) { c.PackageID = "" }, "package_id"},
		{"mapping", func(c *release.Config) { c.Mapping = "" }, "mapping"},
		{"no templates", func(c *release.Config) { c.Templates = nil }, "at least one template"},
		{"format", func(c *release.Config) { c.Output.Formats = []string{"parquet"} }, "invalid formats"},
		{"duplicate source", func(c *release.Config) { c.Sources = append(c.Sources, c.Sources[0]) }, `duplicate source id "files"`},
		{"source without path", func(c *release.Config) { c.Sources[0].Path = "" }, `source "files" has no path`},
		{"unknown enrich source", func(c *release.Config) { c.Enrich[0].Source = "nope" }, `unknown source "nope"`},
		{"unknown join", func(c *release.Config) { c.Enrich[0].Steps[1].With = "nope" }, `join with unknown source "nope"`},
		{"duplicate template", func(c *release.Config) { c.Templates = append(c.Templates, c.Templates[0]) }, `duplicate template "CDS Genomics"`},
		{"template source", func(c *release.Config) { c.Templates[0].Source = "nope" }, `CDS Genomics: unknown source "nope"`},
		{"dbgap source", func(c *release.Config) { c.DBGaP.Source = "" }, "source is required"},
		{"dbgap files template", func(c *release.Config) { c.DBGaP.FilesTemplate = "nope" }, `unknown files template "nope"`},
		{"dbgap centers", func(c *release.Config) { c.Centers = "" }, "required for dbgap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := load(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, load(t).Validate())
}

func TestFilter(t *testing.T) {
	src := table.MustNew([]string{"id", "assay", "center"},
		[]table.Value{"a", "H&E", "HTAN OHSU"},
		[]table.Value{"b", "CyCIF", "HTAN SRRS"},
		[]table.Value{"c", "CyCIF", "HTAN HMS"},
		[]table.Value{"d", nil, "HTAN HMS"},
	)
	pathology := &release.Filter{Any: []*release.Filter{
		{Column: "assay", In: []any{"H&E"}},
		{Column: "center", In: []any{"HTAN SRRS"}},
	}}

	ids := func(t *testing.T, f *release.Filter) []table.Value {
		t.Helper()
		out, err := f.Apply(src)
		require.NoError(t, err)
		col, err := out.Column("id")
		require.NoError(t, err)
		return col
	}

	assert.Equal(t, []table.Value{"a", "b"}, ids(t, pathology))
	assert.Equal(t, []table.Value{"c", "d"}, ids(t, &release.Filter{Not: pathology}))
	assert.Equal(t, []table.Value{"c"}, ids(t, &release.Filter{All: []*release.Filter{
		{Column: "assay", In: []any{"CyCIF"}},
		{Column: "center", In: []any{"HTAN HMS"}},
	}}))
	assert.Equal(t, []table.Value{"a", "b", "c", "d"}, ids(t, nil), "nil filter keeps every row")
	assert.Equal(t, []table.Value{"a", "b", "c", "d"}, ids(t, &release.Filter{}))

	_, err := (&release.Filter{Not: &release.Filter{Column: "nope"}}).Apply(src)
	assert.True(t, errors.IsMissingSourceColumn(err))
	assert.Equal(t, []string{"nope"}, (&release.Filter{Not: &release.Filter{Column: "nope"}}).Columns())
}

func TestValueSetsConfig_Options(t *testing.T) {
	sets, err := table.New([]string{constants.ValueSetNameColumn, "Accepted"},
		[]table.Value{"sex", "Female"},
		[]table.Value{nil, "Male"},
	)
	require.NoError(t, err)

	cfg := release.ValueSetsConfig{TermColumn: "Accepted"}
	v, err := vocabulary.Build(sets, "sex", cfg.Options(false)...)
	require.NoError(t, err)
	assert.Equal(t, []string{"Female", "Male"}, v.Terms())

	_, err = vocabulary.Build(sets, "sex", release.ValueSetsConfig{}.Options(false)...)
	assert.Error(t, err, "default term column is absent")
}
