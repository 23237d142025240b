package release

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mc2-center/mc2-data-models/internal/matcher"
	"github.com/mc2-center/mc2-data-models/internal/sink"
	"github.com/mc2-center/mc2-data-models/internal/sources"
	"github.com/mc2-center/mc2-data-models/pkg/assemble"
	"github.com/mc2-center/mc2-data-models/pkg/constants"
	"github.com/mc2-center/mc2-data-models/pkg/dbgap"
	"github.com/mc2-center/mc2-data-models/pkg/engine"
	"github.com/mc2-center/mc2-data-models/pkg/enrich"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/logging"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

const (
	valueSetsID = sources.ID("value_sets")

	// dbGaP output names
	sampleMappingName  = "HTAN_SSM_DS"
	subjectConsentName = "HTAN_SubjectConsent_DS"

	defaultFilesColumn = "file_url_in_cds"
)

// Outcome is what a release run produced.
type Outcome struct {
	RunID  string
	Result *assemble.Result
	// Skipped lists templates whose filtered source had no rows.
	Skipped []string
	// Written lists every file written, in write order.
	Written []string

	SampleMapping  *table.Table
	SubjectConsent *table.Table
	Summary        *dbgap.Summary

	Duration time.Duration
}

// Run executes a release: load, enrich, partition, assemble, write, dbgap,
// narrative. A template that fails does not stop the others unless the
// config asks for fail_fast; the joined template failures are returned
// alongside the outcome.
func Run(ctx context.Context, cfg *Config, opts ...Option) (*Outcome, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	ctx = logging.WithRelease(logging.WithLogger(ctx, &o.Logger), cfg.PackageID)
	r := &run{cfg: cfg, opts: o, logger: *logging.FromContext(ctx)}
	return r.execute(ctx)
}

type run struct {
	cfg    *Config
	opts   *Options
	logger zerolog.Logger

	doc      *mapping.Document
	centers  enrich.Centers
	tables   sources.Tables
	vocab    *vocabulary.Cache
	formats  []sink.Format
	subjects *table.Table
	out      *Outcome
}

func (r *run) execute(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	r.out = &Outcome{}

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"load", r.load},
		{"enrich", r.enrich},
	}
	for _, s := range stages {
		if err := r.stage(ctx, s.name, s.fn); err != nil {
			return nil, err
		}
	}

	var requests []assemble.Request
	if err := r.stage(ctx, "partition", func(context.Context) error {
		var err error
		requests, err = r.partition()
		return err
	}); err != nil {
		return nil, err
	}

	var assembleErr error
	if err := r.stage(ctx, "assemble", func(ctx context.Context) error {
		writeErrs, err := r.assemble(ctx, requests)
		assembleErr = err
		return errors.Join(writeErrs...)
	}); err != nil {
		return r.out, err
	}

	if r.cfg.DBGaP != nil {
		for _, s := range []struct {
			name string
			fn   func(context.Context) error
		}{
			{"dbgap", r.dbgap},
			{"narrative", r.narrative},
		} {
			if err := r.stage(ctx, s.name, s.fn); err != nil {
				return r.out, err
			}
		}
	}

	r.out.Duration = time.Since(start)
	r.logger.Info().
		Str("run_id", r.out.RunID).
		Int("tables", len(r.out.Result.Order)).
		Int("failed", len(r.out.Result.Failed())).
		Int("skipped", len(r.out.Skipped)).
		Int("files", len(r.out.Written)).
		Dur("duration", r.out.Duration).
		Msg("Release completed")
	return r.out, assembleErr
}

// stage runs fn with the stage recorded on the context logger and logs
// its duration.
func (r *run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx = logging.WithStage(ctx, name)
	logger := logging.FromContext(ctx)
	start := time.Now()
	logger.Debug().Msg("Stage started")
	if err := fn(ctx); err != nil {
		logger.Error().Err(err).Msg("Stage failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Info().Dur("duration", time.Since(start)).Msg("Stage completed")
	return nil
}

func (r *run) load(ctx context.Context) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	formats, err := sink.ParseFormats(r.cfg.Output.Formats)
	if err != nil {
		return err
	}
	r.formats = formats

	if r.doc, err = mapping.LoadFile(r.cfg.Mapping); err != nil {
		return err
	}

	if r.cfg.Centers != "" {
		if r.centers, err = enrich.LoadCenters(r.cfg.Centers); err != nil {
			return err
		}
	}

	srcs := sources.NewSources()
	for _, s := range r.cfg.Sources {
		src, err := fileSource(s)
		if err != nil {
			return err
		}
		srcs.Set(src)
	}
	if vs := r.cfg.ValueSets; vs.Path != "" {
		format, err := sources.ParseFormat(vs.Format)
		if err != nil {
			return err
		}
		srcs.Set(sources.NewFile(valueSetsID, vs.Path, sources.WithFormat(format), sources.WithSheet(vs.Sheet)))
	}

	if r.tables, err = sources.LoadAll(ctx, srcs.List()...); err != nil {
		return err
	}

	if vs, ok := r.tables[valueSetsID]; ok {
		r.vocab = vocabulary.NewCache(vs, r.cfg.ValueSets.Options(r.cfg.StrictLookup)...)
	}

	r.logger.Info().
		Int("sources", len(r.tables)).
		Strs("templates", r.doc.Templates()).
		Int("centers", len(r.centers)).
		Msg("Inputs loaded")
	return nil
}

func fileSource(s SourceConfig) (*sources.File, error) {
	format, err := sources.ParseFormat(s.Format)
	if err != nil {
		return nil, err
	}
	opts := []sources.Option{sources.WithFormat(format), sources.WithSheet(s.Sheet)}
	if s.Delimiter != "" {
		opts = append(opts, sources.WithDelimiter([]rune(s.Delimiter)[0]))
	}
	if s.UnderscoreHeaders {
		opts = append(opts, sources.WithUnderscoreHeaders())
	}
	return sources.NewFile(sources.ID(s.ID), s.Path, opts...), nil
}

func (r *run) enrich(context.Context) error {
	for _, e := range r.cfg.Enrich {
		base, err := r.tables.Get(sources.ID(e.Source))
		if err != nil {
			return err
		}
		parts := []*table.Table{base}
		for _, id := range e.Concat {
			t, err := r.tables.Get(sources.ID(id))
			if err != nil {
				return err
			}
			parts = append(parts, t)
		}

		steps, err := buildSteps(e.Steps, r.tables, r.centers)
		if err != nil {
			return err
		}
		name := e.As
		if name == "" {
			name = e.Source
		}
		out, err := enrich.Apply(table.Concat(parts...), r.logger.With().Str("table", name).Logger(), steps...)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.tables[sources.ID(name)] = out

		if r.cfg.Output.Merged && !r.opts.DryRun {
			path, err := sink.Save("full_metadata_"+name, out,
				sink.WithDir(r.cfg.Output.Dir), sink.WithPackageID(r.cfg.PackageID))
			if err != nil {
				return err
			}
			r.out.Written = append(r.out.Written, path)
		}
	}
	return nil
}

func (r *run) partition() ([]assemble.Request, error) {
	selector, err := matcher.NewSelector(r.opts.Templates...)
	if err != nil {
		return nil, errors.NewValidationError("templates", strings.Join(r.opts.Templates, ","), err.Error())
	}

	var requests []assemble.Request
	for _, tc := range r.cfg.Templates {
		if !selector.Select(tc.Name) {
			continue
		}
		src, err := r.tables.Get(sources.ID(tc.Source))
		if err != nil {
			return nil, err
		}
		subset, err := tc.Filter.Apply(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tc.Name, err)
		}
		r.logger.Info().
			Str("template", tc.Name).
			Str("source", tc.Source).
			Int("rows", subset.Len()).
			Msg("Source partitioned")
		if subset.Len() == 0 && tc.SkipEmpty {
			r.out.Skipped = append(r.out.Skipped, tc.Name)
			continue
		}

		req := assemble.Request{Template: tc.Name, Source: subset, LeadingColumn: tc.LeadingColumn}
		req.LeadingValue = table.Normalize(tc.LeadingValue)
		if req.LeadingValue == nil && tc.LeadingColumn == constants.AccessionColumn {
			req.LeadingValue = r.cfg.PHSAccession
		}
		requests = append(requests, req)
	}
	for _, p := range selector.Unmatched() {
		r.logger.Warn().Str("selector", p).Msg("Template selector matched no configured template")
	}
	return requests, nil
}

// assemble builds every request and writes each table as soon as it is
// assembled. Write failures are returned apart from template failures.
func (r *run) assemble(ctx context.Context, requests []assemble.Request) ([]error, error) {
	var provider vocabulary.Provider
	if r.vocab != nil {
		provider = r.vocab
	}
	a := assemble.New(r.doc, provider,
		assemble.WithFailFast(r.cfg.FailFast),
		assemble.WithParallelism(r.cfg.Parallelism),
		assemble.WithLogger(*logging.FromContext(ctx)),
		assemble.WithEngineOptions(engine.WithStrictLookup(r.cfg.StrictLookup)),
	)

	var writeErrs []error
	if !r.opts.DryRun {
		a.OnTableAssembled(func(template string, t *table.Table, _ assemble.Report) {
			paths, err := r.write(logging.WithTemplate(ctx, template), template, t)
			r.out.Written = append(r.out.Written, paths...)
			if err != nil {
				writeErrs = append(writeErrs, err)
			}
		})
	}

	res, err := a.Assemble(requests)
	r.out.Result = res
	r.out.RunID = res.RunID
	return writeErrs, err
}

func (r *run) write(ctx context.Context, template string, t *table.Table) ([]string, error) {
	var paths []string
	for _, f := range r.formats {
		opts := []sink.Option{
			sink.WithDir(r.cfg.Output.Dir),
			sink.WithFormat(f),
			sink.WithPackageID(r.cfg.PackageID),
		}
		if f == sink.FormatXLSX && r.cfg.Output.Workbook != "" {
			opts = append(opts, sink.WithWorkbook(r.cfg.Output.Workbook))
		}
		path, err := sink.Save(template, t, opts...)
		if err != nil {
			return paths, errors.WrapTemplate(template, err)
		}
		logging.FromContext(ctx).Debug().Str("path", path).Msg("Table written")
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *run) dbgap(context.Context) error {
	d := r.cfg.DBGaP
	cols := r.columns()

	merged, err := r.tables.Get(sources.ID(d.Source))
	if err != nil {
		return err
	}
	existingSamples, err := r.optional(d.ExistingSamples)
	if err != nil {
		return err
	}
	existingConsent, err := r.optional(d.ExistingConsent)
	if err != nil {
		return err
	}
	biospecimens, err := r.optional(d.Biospecimens)
	if err != nil {
		return err
	}

	ssm, err := dbgap.SubjectSampleMapping(existingSamples, merged, biospecimens, cols)
	if err != nil {
		return fmt.Errorf("subject sample mapping: %w", err)
	}
	if r.subjects, err = dbgap.NewSubjects(merged, r.centers, cols); err != nil {
		return fmt.Errorf("new subjects: %w", err)
	}
	consent, err := dbgap.SubjectConsent(r.subjects, existingConsent)
	if err != nil {
		return fmt.Errorf("subject consent: %w", err)
	}
	r.out.SampleMapping = ssm
	r.out.SubjectConsent = consent

	if !r.opts.DryRun {
		for _, out := range []struct {
			name  string
			table *table.Table
		}{
			{sampleMappingName, ssm},
			{subjectConsentName, consent},
		} {
			path, err := sink.Save(out.name, out.table, sink.WithDir(r.cfg.Output.Dir), sink.WithPackageID(r.cfg.PackageID))
			if err != nil {
				return err
			}
			r.out.Written = append(r.out.Written, path)
		}
	}

	r.logger.Info().
		Int("samples", ssm.Len()).
		Int("subjects", consent.Len()).
		Msg("dbGaP tables built")
	return nil
}

func (r *run) narrative(context.Context) error {
	d := r.cfg.DBGaP
	merged, err := r.tables.Get(sources.ID(d.Source))
	if err != nil {
		return err
	}
	existingConsent, err := r.optional(d.ExistingConsent)
	if err != nil {
		return err
	}

	files, err := r.files(merged)
	if err != nil {
		return err
	}
	centers, err := merged.Distinct(r.columns().Center)
	if err != nil {
		return err
	}
	summary, err := dbgap.Summarize(files, r.subjects, existingConsent, centers)
	if err != nil {
		return err
	}
	summary.DataType = d.DataType
	summary.FileKind = d.FileKind
	r.out.Summary = &summary

	r.logger.Info().
		Int("files", summary.Files).
		Int("participants", summary.Participants).
		Int("new_participants", summary.NewParticipants).
		Strs("centers", summary.Centers).
		Msg("Change log summarized")
	return nil
}

func (r *run) columns() dbgap.Columns {
	d := r.cfg.DBGaP
	cols := dbgap.DefaultColumns
	if d.ParticipantColumn != "" {
		cols.Participant = d.ParticipantColumn
	}
	if d.BiospecimenColumn != "" {
		cols.Biospecimen = d.BiospecimenColumn
	}
	if d.GenderColumn != "" {
		cols.Gender = d.GenderColumn
	}
	if d.CenterColumn != "" {
		cols.Center = d.CenterColumn
	}
	return cols
}

// optional returns the table of a source ID, or nil for an empty ID.
func (r *run) optional(id string) (*table.Table, error) {
	if id == "" {
		return nil, nil
	}
	return r.tables.Get(sources.ID(id))
}

// files returns the file identifiers counted in the change log: a column
// of an assembled template when one is configured, else merged's
// entityId column.
func (r *run) files(merged *table.Table) ([]table.Value, error) {
	d := r.cfg.DBGaP
	column := d.FilesColumn
	if d.FilesTemplate != "" {
		if column == "" {
			column = defaultFilesColumn
		}
		t, ok := r.out.Result.Table(d.FilesTemplate)
		if !ok {
			return nil, errors.NewResourceError("find", "table", d.FilesTemplate, errors.ErrNotFound)
		}
		return t.Column(column)
	}
	if column == "" {
		column = "entityId"
	}
	return merged.Column(column)
}
