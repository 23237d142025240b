// Package assemble builds a family of submission tables from mapping
// specifications.
//
// Each Request names a template and the source rows it is built from. The
// Assembler loads the template's spec, executes it, removes duplicate rows
// and registers the table under the template name:
//
//	a := assemble.New(doc, vocabulary.NewCache(valueSets))
//	res, err := a.Assemble([]assemble.Request{
//	    {Template: "CDS Genomics", Source: merged, LeadingColumn: "phs_accession", LeadingValue: accession},
//	})
//
// By default every template is attempted and each failure is reported
// against its template name; WithFailFast stops at the first failure.
package assemble

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mc2-center/mc2-data-models/pkg/dedupe"
	"github.com/mc2-center/mc2-data-models/pkg/engine"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

// SpecLoader loads the mapping specification of a template.
// *mapping.Document implements it.
type SpecLoader interface {
	Load(template string) (*mapping.Spec, error)
}

var _ SpecLoader = (*mapping.Document)(nil)

// Request asks for one template to be built from Source.
type Request struct {
	Template string
	Source   *table.Table

	// LeadingColumn, when set, is prepended to the table with LeadingValue
	// on every row.
	LeadingColumn string
	LeadingValue  table.Value
}

// Assembler drives the executor across templates.
type Assembler struct {
	hooks

	loader   SpecLoader
	provider vocabulary.Provider
	options  *Options
}

// New creates an Assembler. provider may be nil when no template resolves
// values against a controlled vocabulary.
func New(loader SpecLoader, provider vocabulary.Provider, opts ...Option) *Assembler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Assembler{
		loader:   loader,
		provider: provider,
		options:  o,
	}
}

type outcome struct {
	attempted bool
	table     *table.Table
	report    Report
}

// Assemble builds the requested tables. The returned Result is never nil;
// the error joins every template failure.
func (a *Assembler) Assemble(requests []Request) (*Result, error) {
	res := &Result{
		RunID:  uuid.NewString(),
		Tables: make(map[string]*table.Table, len(requests)),
	}
	logger := a.options.Logger.With().Str("run_id", res.RunID).Logger()
	logger.Info().Int("templates", len(requests)).Msg("Assembling tables")

	seen := make(map[string]int, len(requests))
	duplicate := make([]bool, len(requests))
	for i, req := range requests {
		if _, ok := seen[req.Template]; ok {
			duplicate[i] = true
		}
		seen[req.Template] = i
	}

	outcomes := make([]outcome, len(requests))
	build := func(i int) {
		if duplicate[i] {
			outcomes[i] = outcome{attempted: true, report: Report{
				Template: requests[i].Template,
				Err: errors.WrapTemplate(requests[i].Template,
					errors.NewValidationError("template", requests[i].Template, "template requested more than once")),
			}}
			return
		}
		t, rep := a.build(requests[i])
		outcomes[i] = outcome{attempted: true, table: t, report: rep}
	}

	if a.options.Parallelism <= 1 {
		for i := range requests {
			build(i)
			if outcomes[i].report.Err != nil && a.options.FailFast {
				break
			}
		}
	} else {
		var stop atomic.Bool
		var g errgroup.Group
		g.SetLimit(a.options.Parallelism)
		for i := range requests {
			g.Go(func() error {
				if a.options.FailFast && stop.Load() {
					return nil
				}
				build(i)
				if outcomes[i].report.Err != nil {
					stop.Store(true)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, out := range outcomes {
		if !out.attempted {
			continue
		}
		res.Reports = append(res.Reports, out.report)
		rep := out.report
		if rep.Err != nil {
			logger.Error().
				Err(rep.Err).
				Str("template", rep.Template).
				Str("kind", rep.Kind()).
				Strs("attributes", rep.Attributes()).
				Msg("Template failed")
			a.triggerFailed(rep)
			continue
		}
		res.Tables[rep.Template] = out.table
		res.Order = append(res.Order, rep.Template)
		logger.Info().
			Str("template", rep.Template).
			Int("rows", rep.Rows).
			Int("columns", rep.Columns).
			Int("duplicates_removed", rep.DuplicatesRemoved).
			Dur("duration", rep.Duration).
			Msg("Table assembled")
		a.triggerAssembled(rep.Template, out.table, rep)
	}

	return res, res.Err()
}

func (a *Assembler) build(req Request) (*table.Table, Report) {
	start := time.Now()
	rep := Report{Template: req.Template}
	fail := func(err error) (*table.Table, Report) {
		rep.Err = errors.WrapTemplate(req.Template, err)
		rep.Duration = time.Since(start)
		return nil, rep
	}

	if req.Source == nil {
		return fail(errors.NewValidationError("source", nil, fmt.Sprintf("no source table for %q", req.Template)))
	}
	rep.SourceRows = req.Source.Len()

	spec, err := a.loader.Load(req.Template)
	if err != nil {
		return fail(err)
	}

	opts := append([]engine.Option{engine.WithLogger(a.options.Logger)}, a.options.Engine...)
	if req.LeadingColumn != "" {
		opts = append(opts, engine.WithLeadingColumn(req.LeadingColumn, req.LeadingValue))
	}
	out, err := engine.Execute(spec, req.Source, a.provider, opts...)
	if err != nil {
		return fail(err)
	}

	deduped := dedupe.Rows(out)
	rep.Rows = deduped.Len()
	rep.Columns = deduped.Width()
	rep.DuplicatesRemoved = out.Len() - deduped.Len()
	rep.Duration = time.Since(start)
	return deduped, rep
}
