package transform

import (
	"fmt"
	"math"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// invalidPolicy decides what a numeric op does with a value that does not
// parse as a number.
type invalidPolicy int

const (
	failInvalid invalidPolicy = iota
	nullInvalid
	keepInvalid
)

func parseInvalid(args Args) (invalidPolicy, error) {
	s, err := args.String("on_invalid", "fail")
	if err != nil {
		return 0, err
	}
	switch s {
	case "fail":
		return failInvalid, nil
	case "null":
		return nullInvalid, nil
	case "keep":
		return keepInvalid, nil
	default:
		return 0, fmt.Errorf("on_invalid must be one of fail, null, keep; got %q", s)
	}
}

// mapNumbers applies fn to each numeric value. Nulls pass through and
// non-numeric values follow policy.
func mapNumbers(op string, policy invalidPolicy, col []table.Value, fn func(f float64, orig table.Value) table.Value) ([]table.Value, error) {
	out := make([]table.Value, len(col))
	for i, v := range col {
		if table.IsNull(v) {
			continue
		}
		f, ok := table.Float(v)
		if !ok {
			switch policy {
			case nullInvalid:
				continue
			case keepInvalid:
				out[i] = v
				continue
			default:
				return nil, errors.NewExpressionError(op, i, fmt.Sprintf("%q is not a number", table.Format(v)), nil)
			}
		}
		out[i] = fn(f, v)
	}
	return out, nil
}

// number returns f as int64 when it is integral, float64 otherwise.
func number(f float64) table.Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<62 {
		return int64(f)
	}
	return f
}

func newScale(args Args) (Func, error) {
	if err := args.only("factor", "divisor", "on_invalid"); err != nil {
		return nil, err
	}
	factor, hasFactor, err := args.Float("factor")
	if err != nil {
		return nil, err
	}
	divisor, hasDivisor, err := args.Float("divisor")
	if err != nil {
		return nil, err
	}
	switch {
	case hasFactor == hasDivisor:
		return nil, fmt.Errorf("exactly one of factor or divisor is required")
	case hasDivisor && divisor == 0:
		return nil, fmt.Errorf("divisor cannot be zero")
	case hasDivisor:
		factor = 1 / divisor
	}
	policy, err := parseInvalid(args)
	if err != nil {
		return nil, err
	}

	return func(col []table.Value, _ *table.Table) ([]table.Value, error) {
		return mapNumbers("scale", policy, col, func(f float64, _ table.Value) table.Value {
			if hasDivisor {
				return f / divisor
			}
			return f * factor
		})
	}, nil
}

func newToInt(args Args) (Func, error) {
	if err := args.only("on_invalid"); err != nil {
		return nil, err
	}
	policy, err := parseInvalid(args)
	if err != nil {
		return nil, err
	}
	return func(col []table.Value, _ *table.Table) ([]table.Value, error) {
		return mapNumbers("to_int", policy, col, func(f float64, _ table.Value) table.Value {
			return int64(math.Trunc(f))
		})
	}, nil
}

func newClamp(args Args) (Func, error) {
	if err := args.only("min", "max", "on_invalid"); err != nil {
		return nil, err
	}
	lo, hasLo, err := args.Float("min")
	if err != nil {
		return nil, err
	}
	hi, hasHi, err := args.Float("max")
	if err != nil {
		return nil, err
	}
	if !hasLo && !hasHi {
		return nil, fmt.Errorf("at least one of min or max is required")
	}
	if hasLo && hasHi && lo > hi {
		return nil, fmt.Errorf("min %v is greater than max %v", lo, hi)
	}
	policy, err := parseInvalid(args)
	if err != nil {
		return nil, err
	}

	return func(col []table.Value, _ *table.Table) ([]table.Value, error) {
		return mapNumbers("clamp", policy, col, func(f float64, _ table.Value) table.Value {
			switch {
			case hasLo && f < lo:
				return number(lo)
			case hasHi && f > hi:
				return number(hi)
			}
			return number(f)
		})
	}, nil
}

type bucketCase struct {
	lt, le, gt, ge float64

	hasLT, hasLE, hasGT, hasGE bool

	value table.Value
}

func (c bucketCase) match(f float64) bool {
	return (!c.hasLT || f < c.lt) &&
		(!c.hasLE || f <= c.le) &&
		(!c.hasGT || f > c.gt) &&
		(!c.hasGE || f >= c.ge)
}

func newBucket(args Args) (Func, error) {
	if err := args.only("cases", "default", "on_invalid"); err != nil {
		return nil, err
	}
	raw, err := args.List("cases")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("parameter %q is required", "cases")
	}

	cases := make([]bucketCase, len(raw))
	for i, item := range raw {
		m, err := StringMap(item)
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", i, err)
		}
		ca := Args(m)
		if err := ca.only("lt", "le", "gt", "ge", "value"); err != nil {
			return nil, fmt.Errorf("case %d: %w", i, err)
		}
		var c bucketCase
		for _, bound := range []struct {
			key string
			dst *float64
			has *bool
		}{
			{"lt", &c.lt, &c.hasLT},
			{"le", &c.le, &c.hasLE},
			{"gt", &c.gt, &c.hasGT},
			{"ge", &c.ge, &c.hasGE},
		} {
			if *bound.dst, *bound.has, err = ca.Float(bound.key); err != nil {
				return nil, fmt.Errorf("case %d: %w", i, err)
			}
		}
		if !c.hasLT && !c.hasLE && !c.hasGT && !c.hasGE {
			return nil, fmt.Errorf("case %d: needs at least one of lt, le, gt, ge", i)
		}
		if !ca.Has("value") {
			return nil, fmt.Errorf("case %d: value is required", i)
		}
		c.value = table.Normalize(ca["value"])
		cases[i] = c
	}

	hasDefault := args.Has("default")
	def := table.Normalize(args["default"])
	policy, err := parseInvalid(args)
	if err != nil {
		return nil, err
	}

	return func(col []table.Value, _ *table.Table) ([]table.Value, error) {
		return mapNumbers("bucket", policy, col, func(f float64, orig table.Value) table.Value {
			for _, c := range cases {
				if c.match(f) {
					return c.value
				}
			}
			if hasDefault {
				return def
			}
			return orig
		})
	}, nil
}
