package enrich

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mc2-center/mc2-data-models/pkg/dedupe"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

// Step transforms a whole table.
type Step interface {
	Name() string
	Apply(t *table.Table) (*table.Table, error)
}

// Apply runs steps in order and logs the row count after each.
func Apply(t *table.Table, logger zerolog.Logger, steps ...Step) (*table.Table, error) {
	for i, s := range steps {
		before := t.Len()
		out, err := s.Apply(t)
		if err != nil {
			return nil, fmt.Errorf("enrich step %d (%s): %w", i, s.Name(), err)
		}
		logger.Debug().
			Str("step", s.Name()).
			Int("rows_before", before).
			Int("rows_after", out.Len()).
			Msg("Enrichment step applied")
		t = out
	}
	return t, nil
}

// CenterFields attaches center details by identifier prefix.
type CenterFields struct {
	Centers  Centers
	IDColumn string
	Fields   []string
}

// Name implements Step.
func (s CenterFields) Name() string { return "centers" }

// Apply implements Step.
func (s CenterFields) Apply(t *table.Table) (*table.Table, error) {
	return s.Centers.AddFields(t, s.IDColumn, s.Fields...)
}

// Explode splits a multi-valued column into one row per value.
type Explode struct {
	Column string
	Sep    string
}

// Name implements Step.
func (s Explode) Name() string { return "explode" }

// Apply implements Step.
func (s Explode) Apply(t *table.Table) (*table.Table, error) {
	sep := s.Sep
	if sep == "" {
		sep = ","
	}
	return t.Explode(s.Column, sep)
}

// Constant sets a column to the same value on every row.
type Constant struct {
	Column string
	Value  table.Value
}

// Name implements Step.
func (s Constant) Name() string { return "constant" }

// Apply implements Step.
func (s Constant) Apply(t *table.Table) (*table.Table, error) {
	return t.WithConstant(s.Column, s.Value), nil
}

// Join left-joins another table.
type Join struct {
	Right    *table.Table
	LeftKey  string
	RightKey string
}

// Name implements Step.
func (s Join) Name() string { return "join" }

// Apply implements Step.
func (s Join) Apply(t *table.Table) (*table.Table, error) {
	if s.Right == nil {
		return nil, errors.NewValidationError("right", nil, "join needs a right table")
	}
	right := s.RightKey
	if right == "" {
		right = s.LeftKey
	}
	return t.LeftJoin(s.Right, s.LeftKey, right)
}

// Dedupe removes rows duplicated on Columns, or on every column when
// Columns is empty.
type Dedupe struct {
	Columns []string
	Keep    dedupe.Keep
}

// Name implements Step.
func (s Dedupe) Name() string { return "dedupe" }

// Apply implements Step.
func (s Dedupe) Apply(t *table.Table) (*table.Table, error) {
	if len(s.Columns) == 0 {
		return dedupe.Rows(t), nil
	}
	return dedupe.By(t, s.Columns, s.Keep)
}

// Derive sets Column to the result of running Transform over Source.
type Derive struct {
	Column    string
	Source    string
	Transform *transform.Pipeline
}

// Name implements Step.
func (s Derive) Name() string { return "derive" }

// Apply implements Step.
func (s Derive) Apply(t *table.Table) (*table.Table, error) {
	values, err := t.Column(s.Source)
	if err != nil {
		return nil, err
	}
	out, err := s.Transform.Apply(values, t)
	if err != nil {
		return nil, errors.WrapAttribute(s.Column, err)
	}
	return t.WithColumn(s.Column, out)
}
