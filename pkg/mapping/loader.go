package mapping

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

// Document is a parsed mapping document. Templates are validated when
// they are loaded, so one malformed template does not prevent loading
// the others.
type Document struct {
	path      string
	order     []string
	templates map[string]any
	registry  *transform.Registry
}

// Option configures a Document.
type Option func(*Document)

// WithRegistry compiles transforms against r instead of the built-in
// registry.
func WithRegistry(r *transform.Registry) Option {
	return func(d *Document) {
		d.registry = r
	}
}

// LoadFile reads and parses a mapping document.
func LoadFile(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return parse(data, path, opts...)
}

// Parse parses a mapping document from YAML.
func Parse(data []byte, opts ...Option) (*Document, error) {
	return parse(data, "", opts...)
}

func parse(data []byte, path string, opts ...Option) (*Document, error) {
	var raw yaml.MapSlice
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewParseError("yaml", path, "unmarshaling mapping document", err)
	}

	doc := &Document{
		path:      path,
		templates: make(map[string]any, len(raw)),
		registry:  transform.Default(),
	}
	for _, opt := range opts {
		opt(doc)
	}

	for _, item := range raw {
		name := table.Format(table.Normalize(item.Key))
		if name == "" {
			return nil, errors.NewParseError("yaml", path, "template name cannot be empty", nil)
		}
		if _, dup := doc.templates[name]; dup {
			return nil, errors.NewParseError("yaml", path, fmt.Sprintf("duplicate template %q", name), nil)
		}
		doc.order = append(doc.order, name)
		doc.templates[name] = item.Value
	}
	return doc, nil
}

// Path returns the file the document was loaded from, if any.
func (d *Document) Path() string {
	return d.path
}

// Templates returns the template names in document order.
func (d *Document) Templates() []string {
	return append([]string(nil), d.order...)
}

// Has reports whether the document declares the template.
func (d *Document) Has(template string) bool {
	_, ok := d.templates[template]
	return ok
}

// Load returns the validated specification for a template.
func (d *Document) Load(template string) (*Spec, error) {
	raw, ok := d.templates[template]
	if !ok {
		return nil, errors.NewSpecNotFoundError(template, d.Templates())
	}
	return d.compile(template, raw)
}

// Validate loads every template and returns all failures joined, in
// document order.
func (d *Document) Validate() error {
	var errs []error
	for _, name := range d.order {
		if _, err := d.Load(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Document) compile(template string, raw any) (*Spec, error) {
	entry, err := transform.StringMap(raw)
	if err != nil {
		return nil, errors.NewMalformedRuleError(template, "", -1, "template must be a mapping")
	}

	list, ok := entry["attributes"].([]any)
	if !ok {
		return nil, errors.NewMalformedRuleError(template, "", -1, "template must declare an attributes list")
	}

	spec := &Spec{Template: template, Rules: make([]Rule, 0, len(list))}
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		rule, err := d.compileRule(template, i, item)
		if err != nil {
			return nil, err
		}
		if seen[rule.Target] {
			return nil, errors.NewMalformedRuleError(template, rule.Target, i, "duplicate target attribute")
		}
		seen[rule.Target] = true
		spec.Rules = append(spec.Rules, rule)
	}

	valueSets, err := transform.Args(entry).Strings("value_set_attributes")
	if err != nil {
		return nil, errors.NewMalformedRuleError(template, "", -1, err.Error())
	}
	for _, target := range valueSets {
		k := indexOf(spec.Rules, target)
		if k < 0 {
			return nil, errors.NewMalformedRuleError(template, target, -1,
				"value_set_attributes names an attribute the template does not declare")
		}
		spec.Rules[k].ValueSet = true
	}
	for i, r := range spec.Rules {
		if r.ValueSet && r.Kind != DictLookup && r.Kind != Expression {
			return nil, errors.NewMalformedRuleError(template, r.Target, i,
				fmt.Sprintf("value set resolution needs a derived value, rule is %s", r.Kind))
		}
	}
	return spec, nil
}

func (d *Document) compileRule(template string, index int, item any) (Rule, error) {
	m, err := transform.StringMap(item)
	if err != nil {
		return Rule{}, errors.NewMalformedRuleError(template, "", index, "rule must be a mapping")
	}
	args := transform.Args(m)
	malformed := func(target, format string, a ...any) error {
		return errors.NewMalformedRuleError(template, target, index, fmt.Sprintf(format, a...))
	}

	target, err := args.String("target_attribute", "")
	if err != nil || target == "" {
		return Rule{}, malformed("", "target_attribute is required")
	}
	source, err := args.String("source_attribute", "")
	if err != nil {
		return Rule{}, malformed(target, "source_attribute must be a string")
	}

	rule := Rule{
		Target: target,
		Source: strings.ReplaceAll(strings.TrimSpace(source), " ", "_"),
	}

	if args.Has("map") {
		return Rule{}, malformed(target, "executable map expressions are not supported, declare a transform instead")
	}

	hasFixed := args.Has("fixed_value")
	hasDict := args.Has("dict")
	hasTransform := args.Has("transform")
	unmapped, err := args.Bool("unmapped", false)
	if err != nil {
		return Rule{}, malformed(target, "%v", err)
	}
	rule.ValueSet, err = args.Bool("value_set", false)
	if err != nil {
		return Rule{}, malformed(target, "%v", err)
	}

	switch {
	case unmapped && (hasFixed || hasDict || hasTransform):
		return Rule{}, malformed(target, "unmapped rule cannot declare a derivation")
	case hasFixed && (hasDict || hasTransform):
		return Rule{}, malformed(target, "fixed_value cannot be combined with dict or transform")
	case (hasDict || hasTransform) && rule.Source == "":
		return Rule{}, malformed(target, "source_attribute is required with dict or transform")
	}

	switch {
	case hasFixed:
		rule.Kind = Fixed
		rule.Value = table.Normalize(m["fixed_value"])
	case hasDict:
		rule.Kind = DictLookup
		dict, err := args.Map("dict")
		if err != nil {
			return Rule{}, malformed(target, "%v", err)
		}
		rule.Dict = make(map[string]table.Value, len(dict))
		for k, v := range dict {
			rule.Dict[k] = v
		}
	case hasTransform:
		rule.Kind = Expression
	default:
		rule.Kind = Unmapped
	}

	if hasTransform {
		defs, err := transform.Decode(m["transform"])
		if err != nil {
			return Rule{}, malformed(target, "transform: %v", err)
		}
		p, err := d.registry.Compile(defs)
		if err != nil {
			return Rule{}, malformed(target, "transform: %v", err)
		}
		rule.Transform = p
	}
	return rule, nil
}

func indexOf(rules []Rule, target string) int {
	for i, r := range rules {
		if r.Target == target {
			return i
		}
	}
	return -1
}
