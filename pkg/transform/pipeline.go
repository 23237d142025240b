package transform

import (
	"fmt"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

type step struct {
	op string
	fn Func
}

// Pipeline is a compiled, immutable sequence of steps. It is safe for
// concurrent use.
type Pipeline struct {
	steps []step
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.steps)
}

// Ops returns the op names of the steps, in order.
func (p *Pipeline) Ops() []string {
	if p == nil {
		return nil
	}
	ops := make([]string, len(p.steps))
	for i, s := range p.steps {
		ops[i] = s.op
	}
	return ops
}

// Apply runs every step over col. The input slice is not modified. A nil
// or empty pipeline returns a copy of col.
//
// A step that fails or returns the wrong number of values yields an
// ExpressionError naming the op.
func (p *Pipeline) Apply(col []table.Value, src *table.Table) ([]table.Value, error) {
	out := append([]table.Value(nil), col...)
	if p == nil {
		return out, nil
	}
	for _, s := range p.steps {
		next, err := s.fn(out, src)
		if err != nil {
			var ee *errors.ExpressionError
			if errors.As(err, &ee) {
				return nil, err
			}
			return nil, errors.NewExpressionError(s.op, -1, err.Error(), err)
		}
		if len(next) != len(out) {
			return nil, errors.NewExpressionError(s.op, -1,
				fmt.Sprintf("produced %d values for %d rows", len(next), len(out)), nil)
		}
		out = next
	}
	return out, nil
}

// mapValues applies fn to each non-null value. Nulls pass through.
func mapValues(op string, col []table.Value, fn func(v table.Value) (table.Value, error)) ([]table.Value, error) {
	out := make([]table.Value, len(col))
	for i, v := range col {
		if table.IsNull(v) {
			continue
		}
		r, err := fn(v)
		if err != nil {
			return nil, errors.NewExpressionError(op, i, err.Error(), err)
		}
		out[i] = table.Normalize(r)
	}
	return out, nil
}
