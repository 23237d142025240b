package transform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Func transforms a whole column. src is the source table the column was
// taken from; a Func may read other columns from it but must not retain it.
// The returned slice must have one value per input value.
type Func func(col []table.Value, src *table.Table) ([]table.Value, error)

// Factory compiles the parameters of one step into a Func.
type Factory func(args Args) (Func, error)

// Registry holds the operations a pipeline may use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the registry of built-in operations.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// Register adds or replaces an operation.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Has reports whether the operation exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered operation names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile builds a pipeline from step definitions.
func (r *Registry) Compile(defs []Definition) (*Pipeline, error) {
	p := &Pipeline{steps: make([]step, 0, len(defs))}
	for i, def := range defs {
		op := def.Op()
		if op == "" {
			return nil, fmt.Errorf("step %d: missing op", i)
		}

		r.mu.RLock()
		factory, ok := r.factories[op]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("step %d: unknown op %q", i, op)
		}

		args := make(Args, len(def))
		for k, v := range def {
			if k != "op" {
				args[k] = v
			}
		}
		fn, err := factory(args)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, op, err)
		}
		p.steps = append(p.steps, step{op: op, fn: fn})
	}
	return p, nil
}

// Compile builds a pipeline using the default registry.
func Compile(defs []Definition) (*Pipeline, error) {
	return Default().Compile(defs)
}

// Decode converts a decoded document value into step definitions. A step
// may be written as a bare op name or as a mapping with an "op" key; a
// single step may be written without the enclosing list.
func Decode(v any) ([]Definition, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}

	defs := make([]Definition, 0, len(items))
	for i, item := range items {
		switch x := item.(type) {
		case string:
			defs = append(defs, Definition{"op": x})
		case map[string]any, map[any]any:
			m, err := StringMap(x)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			defs = append(defs, Definition(m))
		default:
			return nil, fmt.Errorf("step %d: expected an op name or mapping, got %T", i, item)
		}
	}
	return defs, nil
}
