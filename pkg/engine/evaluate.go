package engine

import (
	"fmt"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/vocabulary"
)

type evaluator struct {
	source   *table.Table
	provider vocabulary.Provider
	strict   bool
}

func (e *evaluator) evaluate(r mapping.Rule) ([]table.Value, error) {
	n := e.source.Len()

	var values []table.Value
	switch r.Kind {
	case mapping.Fixed:
		values = make([]table.Value, n)
		for i := range values {
			values[i] = r.Value
		}
		return values, nil

	case mapping.DictLookup:
		col, err := e.source.Column(r.Source)
		if err != nil {
			return nil, err
		}
		values, err = e.lookup(r, col)
		if err != nil {
			return nil, err
		}
		if values, err = r.Transform.Apply(values, e.source); err != nil {
			return nil, err
		}

	case mapping.Expression:
		col, err := e.source.Column(r.Source)
		if err != nil {
			return nil, err
		}
		if values, err = r.Transform.Apply(col, e.source); err != nil {
			return nil, err
		}

	default:
		return make([]table.Value, n), nil
	}

	if len(values) != n {
		return nil, errors.NewExpressionError(r.Kind.String(), -1,
			fmt.Sprintf("produced %d values for %d rows", len(values), n), nil)
	}
	if !r.ValueSet {
		return values, nil
	}
	if e.provider == nil {
		return nil, &errors.ValueSetNotFoundError{Attribute: r.Target, Message: "no vocabulary provider"}
	}
	vocab, err := e.provider.Vocabulary(r.Target)
	if err != nil {
		return nil, err
	}
	return vocab.ResolveAll(values), nil
}

func (e *evaluator) lookup(r mapping.Rule, col []table.Value) ([]table.Value, error) {
	out := make([]table.Value, len(col))
	for i, v := range col {
		if table.IsNull(v) {
			continue
		}
		hit, ok := r.Dict[table.Canonical(v)]
		if !ok && e.strict {
			return nil, errors.NewAmbiguousTermError(table.Format(v), nil,
				fmt.Sprintf("not in the dictionary (row %d)", i))
		}
		out[i] = hit
	}
	return out, nil
}
