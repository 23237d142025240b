package transform

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// DefaultMicronUnits are the unit spellings unit_filter accepts when the
// step names none, including the mis-encoded forms found in exported
// imaging metadata.
var DefaultMicronUnits = []string{"um", "µm", "Âµm", "<U+00B5>m"}

func registerBuiltins(r *Registry) {
	r.Register("lookup", newLookup)
	r.Register("scale", newScale)
	r.Register("clamp", newClamp)
	r.Register("bucket", newBucket)
	r.Register("to_int", newToInt)
	r.Register("split", newSplit)
	r.Register("join", newJoin)
	r.Register("replace", newReplace)
	r.Register("regex_replace", newRegexReplace)
	r.Register("template", newTemplate)
	r.Register("null_if", newNullIf)
	r.Register("fill_null", newFillNull)
	r.Register("unit_filter", newUnitFilter)
	r.Register("case", newCase)
	r.Register("trim", newTrim)
}

func newLookup(args Args) (Func, error) {
	if err := args.only("dict", "default", "keep_unmatched"); err != nil {
		return nil, err
	}
	dict, err := args.Map("dict")
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, fmt.Errorf("parameter %q is required", "dict")
	}
	keep, err := args.Bool("keep_unmatched", false)
	if err != nil {
		return nil, err
	}
	if keep && args.Has("default") {
		return nil, fmt.Errorf("default and keep_unmatched are mutually exclusive")
	}
	def := table.Normalize(args["default"])

	return func(col []table.Value, _ *table.Table) ([]table.Value, error) {
		return mapValues("lookup", col, func(v table.Value) (table.Value, error) {
			if hit, ok := dict[table.Canonical(v)]; ok {
				return hit, nil
			}
			if keep {
				return v, nil
			}
			return def, nil
		})
	}, nil
}

func newSplit(args Args) (Func, error) {
	if err := args.only("sep", "index"); err != nil {
		return nil, err
	}
	sep, err := args.RequiredString("sep")
	if err != nil {
		return nil, err
	}
	index, err := args.Int("index", 0)
	if err != nil {
		return nil, err
	}

	return func(col []table.Value, _ *table.Table) ([]table.Value, error) {
		return mapValues("split", col, func(v table.Value) (table.Value, error) {
			parts := strings.Split(table.Format(v), sep)
			i := index
			if i < 0 {
				i += len(parts)
			}
			if i < 0 || i >= len(parts) {
				return nil, nil
			}
			return strings.TrimSpace(parts[i]), nil
		})
	}, nil
}

func newJoin(args Args) (Func, error) {
	if err := args.only("columns", "sep"); err != nil {
		return nil, err
	}
	columns, err := args.Strings("columns")
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("parameter %q is required", "columns")
	}
	sep, err := args.String("sep", " ")
	if err != nil {
		return nil, err
	}

	return func(col []table.Value, src *table.Table) ([]table.Value, error) {
		others := make([][]table.Value, len(columns))
		for k, c := range columns {
			values, err := src.Column(c)
			if err != nil {
				return nil, err
			}
			others[k] = values
		}

		out := make([]table.Value, len(col))
		for i, v := range col {
			parts := make([]string, 0, len(columns)+1)
			if !table.IsNull(v) {
				parts = append(parts, table.Format(v))
			}
			for _, values := range others {
				if i < len(values) && !table.IsNull(values[i]) {
					parts = append(parts, table.Format(values[i]))
				}
			}
			if len(parts) > 0 {
				out[i] = strings.Join(parts, sep)
			}
		}
		return out, nil
	}, nil
}

func newReplace(args Args) (Func, error) {
	if err := args.only("old", "new"); err != nil {
		return nil, err
	}
	old, err := args.RequiredString("old")
	if err != nil {
		return nil, err
	}
	repl, err := args.String("new", "")
	if err != nil {
		return nil, err
	}
	return stringOp("replace", func(s string) table.Value {
		return strings.ReplaceAll(s, old, repl)
	}), nil
}

func newRegexReplace(args Args) (Func, error) {
	if err := args.only("pattern", "replacement"); err != nil {
		return nil, err
	}
	pattern, err := args.RequiredString("pattern")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	repl, err := args.String("replacement", "")
	if err != nil {
		return nil, err
	}
	return stringOp("regex_replace", func(s string) table.Value {
		return re.ReplaceAllString(s, repl)
	}), nil
}

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

func newTemplate(args Args) (Func, error) {
	if err := args.only("format"); err != nil {
		return nil, err
	}
	format, err := args.RequiredString("format")
	if err != nil {
		return nil, err
	}
	var columns []string
	for _, m := range placeholder.FindAllStringSubmatch(format, -1) {
		if m[1] != "value" {
			columns = append(columns, m[1])
		}
	}

	return func(col []table.Value, src *table.Table) ([]table.Value, error) {
		for _, c := range columns {
			if !src.Has(c) {
				return nil, errors.NewMissingColumnError(c)
			}
		}
		out := make([]table.Value, len(col))
		for i, v := range col {
			if table.IsNull(v) {
				continue
			}
			out[i] = placeholder.ReplaceAllStringFunc(format, func(m string) string {
				name := m[1 : len(m)-1]
				if name == "value" {
					return table.Format(v)
				}
				return table.Format(src.Value(i, name))
			})
		}
		return out, nil
	}, nil
}

func newNullIf(args Args) (Func, error) {
	if err := args.only("values", "blank"); err != nil {
		return nil, err
	}
	values, err := args.Strings("values")
	if err != nil {
		return nil, err
	}
	blank, err := args.Bool("blank", false)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 && !blank {
		return nil, fmt.Errorf("parameter %q is required", "values")
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}

	return func(col []table.Value, _ *table.Table) ([]table.Value, error) {
		return mapValues("null_if", col, func(v table.Value) (table.Value, error) {
			if set[table.Canonical(v)] {
				return nil, nil
			}
			if s, ok := v.(string); ok && blank && strings.TrimSpace(s) == "" {
				return nil, nil
			}
			return v, nil
		})
	}, nil
}

func newFillNull(args Args) (Func, error) {
	if err := args.only("value"); err != nil {
		return nil, err
	}
	if !args.Has("value") {
		return nil, fmt.Errorf("parameter %q is required", "value")
	}
	fill := table.Normalize(args["value"])

	return func(col []table.Value, _ *table.Table) ([]table.Value, error) {
		out := make([]table.Value, len(col))
		for i, v := range col {
			if table.IsNull(v) {
				out[i] = fill
			} else {
				out[i] = v
			}
		}
		return out, nil
	}, nil
}

func newUnitFilter(args Args) (Func, error) {
	if err := args.only("unit_column", "units"); err != nil {
		return nil, err
	}
	unitColumn, err := args.RequiredString("unit_column")
	if err != nil {
		return nil, err
	}
	units, err := args.Strings("units")
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		units = DefaultMicronUnits
	}
	accepted := make(map[string]bool, len(units))
	for _, u := range units {
		accepted[u] = true
	}

	return func(col []table.Value, src *table.Table) ([]table.Value, error) {
		unitValues, err := src.Column(unitColumn)
		if err != nil {
			return nil, err
		}
		out := make([]table.Value, len(col))
		for i, v := range col {
			if i < len(unitValues) && accepted[table.Canonical(unitValues[i])] {
				out[i] = v
			}
		}
		return out, nil
	}, nil
}

func newCase(args Args) (Func, error) {
	if err := args.only("mode"); err != nil {
		return nil, err
	}
	mode, err := args.RequiredString("mode")
	if err != nil {
		return nil, err
	}

	var newCaser func() func(string) string
	switch mode {
	case "upper":
		newCaser = func() func(string) string { return cases.Upper(language.Und).String }
	case "lower":
		newCaser = func() func(string) string { return cases.Lower(language.Und).String }
	case "title":
		newCaser = func() func(string) string { return cases.Title(language.Und).String }
	case "capitalize":
		newCaser = func() func(string) string { return Capitalize }
	default:
		return nil, fmt.Errorf("mode must be one of upper, lower, title, capitalize; got %q", mode)
	}

	return func(col []table.Value, src *table.Table) ([]table.Value, error) {
		// Casers are stateful, so each run gets its own.
		convert := newCaser()
		return stringOp("case", func(s string) table.Value { return convert(s) })(col, src)
	}, nil
}

// Capitalize upper-cases the first letter of s and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

func newTrim(args Args) (Func, error) {
	if err := args.only("chars"); err != nil {
		return nil, err
	}
	chars, err := args.String("chars", "")
	if err != nil {
		return nil, err
	}
	return stringOp("trim", func(s string) table.Value {
		if chars == "" {
			return strings.TrimSpace(s)
		}
		return strings.Trim(s, chars)
	}), nil
}

// stringOp applies fn to string values. Other values pass through.
func stringOp(op string, fn func(string) table.Value) Func {
	return func(col []table.Value, _ *table.Table) ([]table.Value, error) {
		return mapValues(op, col, func(v table.Value) (table.Value, error) {
			s, ok := v.(string)
			if !ok {
				return v, nil
			}
			return fn(s), nil
		})
	}
}
