// Package engine applies a mapping specification to a source table.
//
// Every rule reads the immutable source table and produces exactly one
// output value per source row, so rules may be evaluated in any order or
// concurrently without changing the result:
//
//	out, err := engine.Execute(spec, source, vocabulary.NewCache(valueSets),
//	    engine.WithLeadingColumn("phs_accession", "phs002371.v6.p1"),
//	)
//
// All rule failures are returned together, joined in rule order, and no
// partial table is ever returned.
package engine

import (
	"golang.org/x/sync/errgroup"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

// Execute builds the output table for spec from source. provider may be
// nil when no rule needs vocabulary resolution.
func Execute(spec *mapping.Spec, source *table.Table, provider vocabulary.Provider, opts ...Option) (*table.Table, error) {
	if spec == nil {
		return nil, errors.NewValidationError("spec", nil, "spec is required")
	}
	if source == nil {
		return nil, errors.NewValidationError("source", nil, "source table is required")
	}
	o := defaultOptions().Apply(opts...)
	logger := o.Logger.With().Str("template", spec.Template).Logger()

	resolve := make(map[string]bool, len(o.ValueSetAttributes))
	for _, target := range o.ValueSetAttributes {
		resolve[target] = true
	}

	rules := make([]mapping.Rule, 0, len(spec.Rules))
	for _, r := range spec.Rules {
		if o.LeadingColumn != "" && r.Target == o.LeadingColumn {
			logger.Debug().Str("attribute", r.Target).Msg("Rule replaced by leading column")
			continue
		}
		if resolve[r.Target] && (r.Kind == mapping.DictLookup || r.Kind == mapping.Expression) {
			r.ValueSet = true
		}
		rules = append(rules, r)
	}

	columns := make([][]table.Value, len(rules))
	errs := make([]error, len(rules))
	ev := &evaluator{source: source, provider: provider, strict: o.StrictLookup}

	var g errgroup.Group
	g.SetLimit(o.Parallelism)
	for i, r := range rules {
		g.Go(func() error {
			values, err := ev.evaluate(r)
			if err != nil {
				errs[i] = errors.WrapAttribute(r.Target, err)
				return nil
			}
			columns[i] = values
			logger.Debug().
				Str("attribute", r.Target).
				Str("kind", r.Kind.String()).
				Msg("Rule evaluated")
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	b := table.NewBuilder(source.Len())
	if o.LeadingColumn != "" {
		if err := b.AddConstant(o.LeadingColumn, o.LeadingValue); err != nil {
			return nil, err
		}
	}
	for i, r := range rules {
		if err := b.Add(r.Target, columns[i]); err != nil {
			return nil, errors.WrapAttribute(r.Target, err)
		}
	}
	return b.Build(), nil
}
