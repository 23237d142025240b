package transform

import (
	"fmt"
	"sort"

	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Definition is one undecoded transform step. The "op" key names the
// operation; every other key is a parameter.
type Definition map[string]any

// Op returns the operation name of the step.
func (d Definition) Op() string {
	s, _ := d["op"].(string)
	return s
}

// Args holds the parameters of a single step.
type Args map[string]any

// Has reports whether the parameter is present.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns a string parameter, or def when absent.
func (a Args) String(key, def string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", key, v)
	}
	return s, nil
}

// RequiredString returns a non-empty string parameter.
func (a Args) RequiredString(key string) (string, error) {
	s, err := a.String(key, "")
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("parameter %q is required", key)
	}
	return s, nil
}

// Float returns a numeric parameter. ok is false when it is absent.
func (a Args) Float(key string) (f float64, ok bool, err error) {
	v, present := a[key]
	if !present || v == nil {
		return 0, false, nil
	}
	f, ok = table.Float(table.Normalize(v))
	if !ok {
		return 0, false, fmt.Errorf("parameter %q must be a number, got %v", key, v)
	}
	return f, true, nil
}

// Int returns an integer parameter, or def when absent.
func (a Args) Int(key string, def int) (int, error) {
	f, ok, err := a.Float(key)
	if err != nil || !ok {
		return def, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("parameter %q must be an integer, got %v", key, f)
	}
	return int(f), nil
}

// Bool returns a boolean parameter, or def when absent.
func (a Args) Bool(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q must be a boolean, got %T", key, v)
	}
	return b, nil
}

// Strings returns a list parameter as canonical strings. A scalar is
// accepted as a one-element list.
func (a Args) Strings(key string) ([]string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch x := v.(type) {
	case []any:
		out := make([]string, len(x))
		for i, item := range x {
			out[i] = table.Canonical(table.Normalize(item))
		}
		return out, nil
	case []string:
		return append([]string(nil), x...), nil
	case map[string]any, map[any]any:
		return nil, fmt.Errorf("parameter %q must be a list, got a mapping", key)
	default:
		return []string{table.Canonical(table.Normalize(x))}, nil
	}
}

// Map returns a mapping parameter with keys in canonical string form.
func (a Args) Map(key string) (map[string]any, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, err := StringMap(v)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", key, err)
	}
	return m, nil
}

// List returns a list parameter as decoded items.
func (a Args) List(key string) ([]any, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("parameter %q must be a list, got %T", key, v)
	}
	return list, nil
}

// only fails when the step carries a parameter outside allowed.
func (a Args) only(allowed ...string) error {
	known := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		known[k] = true
	}
	var unknown []string
	for k := range a {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown parameters %v", unknown)
}

// StringMap converts a decoded YAML or JSON mapping into a map keyed by
// canonical strings, so that a key written as 1 matches a cell holding "1".
// Scalars are normalized to cell values; nested lists and mappings are
// converted the same way at every depth.
func StringMap(v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = decodeValue(val)
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[table.Canonical(table.Normalize(k))] = decodeValue(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", v)
	}
}

func decodeValue(v any) any {
	switch x := v.(type) {
	case map[string]any, map[any]any:
		m, _ := StringMap(x)
		return m
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = decodeValue(item)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	default:
		return table.Normalize(x)
	}
}
