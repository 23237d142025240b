// Package release runs one CDS submission release end to end: it loads
// the release inputs, enriches and partitions them, assembles every
// configured template and writes the submission and dbGaP tables.
//
// A release is described by a release.yaml file:
//
//	package_id: mc2_batch_2
//	phs_accession: phs002371.v6.p1
//	mapping: mapping/mappings.yaml
//	value_sets:
//	  path: templates/CDS_Genomics.xlsx
//	centers: mapping/center_mappings.json
//	output:
//	  dir: tables/mc2_batch_2
//	  formats: [csv, xlsx]
//	sources:
//	  - id: files
//	    path: exports/files.csv
//	templates:
//	  - name: CDS Genomics
//	    source: files
//	    leading_column: phs_accession
package release

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"

	"github.com/mc2-center/mc2-data-models/internal/sink"
	"github.com/mc2-center/mc2-data-models/pkg/constants"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

// Config describes one release.
type Config struct {
	PackageID    string `mapstructure:"package_id"`
	PHSAccession string `mapstructure:"phs_accession"`
	DataRelease  string `mapstructure:"data_release"`

	// Mapping is the mapping specification document.
	Mapping   string          `mapstructure:"mapping"`
	ValueSets ValueSetsConfig `mapstructure:"value_sets"`
	// Centers is the center directory JSON file.
	Centers string `mapstructure:"centers"`

	Output       OutputConfig `mapstructure:"output"`
	Parallelism  int          `mapstructure:"parallelism"`
	FailFast     bool         `mapstructure:"fail_fast"`
	StrictLookup bool         `mapstructure:"strict_lookup"`

	Sources   []SourceConfig   `mapstructure:"sources"`
	Enrich    []EnrichConfig   `mapstructure:"-"`
	Templates []TemplateConfig `mapstructure:"templates"`
	DBGaP     *DBGaPConfig     `mapstructure:"dbgap"`

	// File is the release file the config was read from.
	File string `mapstructure:"-"`
}

// ValueSetsConfig locates the controlled vocabulary table.
type ValueSetsConfig struct {
	Path       string `mapstructure:"path"`
	Format     string `mapstructure:"format"`
	Sheet      string `mapstructure:"sheet"`
	NameColumn string `mapstructure:"name_column"`
	TermColumn string `mapstructure:"term_column"`
}

// Options returns the vocabulary options for these value sets. A blank
// column name keeps its default.
func (v ValueSetsConfig) Options(strict bool) []vocabulary.Option {
	opts := []vocabulary.Option{vocabulary.WithStrict(strict)}
	if v.NameColumn == "" && v.TermColumn == "" {
		return opts
	}
	name, term := v.NameColumn, v.TermColumn
	if name == "" {
		name = constants.ValueSetNameColumn
	}
	if term == "" {
		term = constants.TermColumn
	}
	return append(opts, vocabulary.WithColumns(name, term))
}

// OutputConfig controls where and how tables are written.
type OutputConfig struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats"`
	// Workbook is the template workbook XLSX output is written into.
	Workbook string `mapstructure:"workbook"`
	// Merged also writes the enriched source tables, for internal tracking.
	Merged bool `mapstructure:"merged"`
}

// SourceConfig declares one input file.
type SourceConfig struct {
	ID                string `mapstructure:"id"`
	Path              string `mapstructure:"path"`
	Format            string `mapstructure:"format"`
	Sheet             string `mapstructure:"sheet"`
	Delimiter         string `mapstructure:"delimiter"`
	UnderscoreHeaders bool   `mapstructure:"underscore_headers"`
}

// EnrichConfig builds the table named As from Source, concatenated with
// Concat, by running Steps in order.
type EnrichConfig struct {
	As     string       `yaml:"as"`
	Source string       `yaml:"source"`
	Concat []string     `yaml:"concat"`
	Steps  []StepConfig `yaml:"steps"`
}

// StepConfig is one enrichment step. Type selects which fields apply:
//
//	centers:  id_column, fields
//	explode:  column, sep
//	constant: column, value
//	join:     with, left_key, right_key
//	dedupe:   columns, keep
//	derive:   column, from, transform
type StepConfig struct {
	Type      string   `yaml:"type"`
	Column    string   `yaml:"column"`
	Sep       string   `yaml:"sep"`
	Value     any      `yaml:"value"`
	IDColumn  string   `yaml:"id_column"`
	Fields    []string `yaml:"fields"`
	With      string   `yaml:"with"`
	LeftKey   string   `yaml:"left_key"`
	RightKey  string   `yaml:"right_key"`
	Columns   []string `yaml:"columns"`
	Keep      string   `yaml:"keep"`
	From      string   `yaml:"from"`
	Transform any      `yaml:"transform"`
}

// TemplateConfig asks for one template to be built.
type TemplateConfig struct {
	Name   string  `mapstructure:"name"`
	Source string  `mapstructure:"source"`
	Filter *Filter `mapstructure:"filter"`
	// LeadingColumn is prepended with LeadingValue on every row. For the
	// phs_accession column the value defaults to the release accession.
	LeadingColumn string `mapstructure:"leading_column"`
	LeadingValue  any    `mapstructure:"leading_value"`
	// SkipEmpty skips the template when its filtered source has no rows.
	SkipEmpty bool `mapstructure:"skip_empty"`
}

// DBGaPConfig configures the dbGaP Subject Sample Mapping and Subject
// Consent tables.
type DBGaPConfig struct {
	Source string `mapstructure:"source"`
	// Biospecimens is the source joined on the biospecimen column, adding
	// CDS_SAMPLE_ID.
	Biospecimens string `mapstructure:"biospecimens"`
	// ExistingSamples and ExistingConsent are the previously submitted
	// tables, as source IDs.
	ExistingSamples string `mapstructure:"existing_samples"`
	ExistingConsent string `mapstructure:"existing_consent"`

	ParticipantColumn string `mapstructure:"participant_column"`
	BiospecimenColumn string `mapstructure:"biospecimen_column"`
	GenderColumn      string `mapstructure:"gender_column"`
	CenterColumn      string `mapstructure:"center_column"`

	// FilesTemplate and FilesColumn locate the file identifiers counted
	// in the change log.
	FilesTemplate string `mapstructure:"files_template"`
	FilesColumn   string `mapstructure:"files_column"`
	DataType      string `mapstructure:"data_type"`
	FileKind      string `mapstructure:"file_kind"`
}

// Load reads a release file. Scalar settings may be overridden by
// CDSMAP_* environment variables, such as CDSMAP_PACKAGE_ID.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, errors.WrapIO("read", path, statErr)
		}
		return nil, errors.WrapParse("yaml", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	// Viper folds map keys to lower case, and derive steps carry lookup
	// tables keyed by source values, so steps are decoded directly.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var steps struct {
		Enrich []EnrichConfig `yaml:"enrich"`
	}
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	cfg.Enrich = steps.Enrich

	cfg.File = path
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.dir", "tables")
	v.SetDefault("output.formats", []string{"csv"})
	v.SetDefault("value_sets.sheet", constants.ValueSetSheet)
	v.SetDefault("parallelism", 1)
}

// resolvePaths makes every relative file path relative to dir.
func (c *Config) resolvePaths(dir string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	resolve(&c.Mapping)
	resolve(&c.ValueSets.Path)
	resolve(&c.Centers)
	resolve(&c.Output.Dir)
	resolve(&c.Output.Workbook)
	for i := range c.Sources {
		resolve(&c.Sources[i].Path)
	}
}

// Validate checks that the config is complete and self-consistent.
func (c *Config) Validate() error {
	var errs []error
	fail := func(component, format string, args ...any) {
		errs = append(errs, errors.NewConfigError(component, fmt.Sprintf(format, args...), nil))
	}

	if c.PackageID == "" {
		fail("package_id", "is required")
	}
	if c.Mapping == "" {
		fail("mapping", "is required")
	}
	if len(c.Templates) == 0 {
		fail("templates", "at least one template is required")
	}
	if _, err := sink.ParseFormats(c.Output.Formats); err != nil {
		errs = append(errs, errors.NewConfigError("output", "invalid formats", err))
	}

	ids := make(map[string]bool)
	for i, s := range c.Sources {
		switch {
		case s.ID == "":
			fail("sources", "source %d has no id", i)
		case ids[s.ID]:
			fail("sources", "duplicate source id %q", s.ID)
		case s.Path == "":
			fail("sources", "source %q has no path", s.ID)
		}
		ids[s.ID] = true
	}

	for _, e := range c.Enrich {
		if !ids[e.Source] {
			fail("enrich", "unknown source %q", e.Source)
		}
		for _, id := range e.Concat {
			if !ids[id] {
				fail("enrich", "unknown source %q", id)
			}
		}
		for _, st := range e.Steps {
			if st.Type == "join" && !ids[st.With] {
				fail("enrich", "join with unknown source %q", st.With)
			}
		}
		if e.As != "" {
			ids[e.As] = true
		}
	}

	names := make(map[string]bool)
	for _, t := range c.Templates {
		if t.Name == "" {
			fail("templates", "template has no name")
			continue
		}
		if names[t.Name] {
			fail("templates", "duplicate template %q", t.Name)
		}
		names[t.Name] = true
		if !ids[t.Source] {
			fail("templates", "%s: unknown source %q", t.Name, t.Source)
		}
	}

	if d := c.DBGaP; d != nil {
		if d.Source == "" {
			fail("dbgap", "source is required")
		}
		for _, id := range []string{d.Source, d.Biospecimens, d.ExistingSamples, d.ExistingConsent} {
			if id != "" && !ids[id] {
				fail("dbgap", "unknown source %q", id)
			}
		}
		if d.FilesTemplate != "" && !names[d.FilesTemplate] {
			fail("dbgap", "unknown files template %q", d.FilesTemplate)
		}
		if c.Centers == "" {
			fail("centers", "is required for dbgap tables")
		}
	}

	return errors.Join(errs...)
}
