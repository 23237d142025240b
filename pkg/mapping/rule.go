package mapping

import (
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

// Kind identifies how a rule derives its target attribute.
type Kind int

const (
	// Unmapped rules emit null for every row.
	Unmapped Kind = iota
	// Fixed rules emit the same constant for every row.
	Fixed
	// DictLookup rules translate the source value through a static dictionary.
	DictLookup
	// Expression rules run a transform pipeline over the source column.
	Expression
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Fixed:
		return "Fixed"
	case DictLookup:
		return "DictLookup"
	case Expression:
		return "Expression"
	default:
		return "Unmapped"
	}
}

// Rule describes how one target attribute is derived.
type Rule struct {
	Target string
	// Source is the source column name, with spaces replaced by underscores.
	Source string
	Kind   Kind

	// Value is the constant of a Fixed rule.
	Value table.Value

	// Dict maps canonical source strings to target values for a DictLookup rule.
	Dict map[string]table.Value

	// Transform runs after the dictionary for DictLookup rules and over the
	// source column for Expression rules. It may be nil.
	Transform *transform.Pipeline

	// ValueSet is set when outputs are resolved against the controlled
	// vocabulary named after Target.
	ValueSet bool
}

// Spec is the mapping specification of a single template.
type Spec struct {
	Template string
	Rules    []Rule
}

// Targets returns the target attribute names in rule order.
func (s *Spec) Targets() []string {
	out := make([]string, len(s.Rules))
	for i, r := range s.Rules {
		out[i] = r.Target
	}
	return out
}

// Rule returns the rule for a target attribute.
func (s *Spec) Rule(target string) (Rule, bool) {
	for _, r := range s.Rules {
		if r.Target == target {
			return r, true
		}
	}
	return Rule{}, false
}

// ValueSetAttributes returns the targets that go through vocabulary
// resolution, in rule order.
func (s *Spec) ValueSetAttributes() []string {
	var out []string
	for _, r := range s.Rules {
		if r.ValueSet {
			out = append(out, r.Target)
		}
	}
	return out
}

// Sources returns the distinct source columns the spec reads, in rule order.
func (s *Spec) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range s.Rules {
		if r.Kind != DictLookup && r.Kind != Expression {
			continue
		}
		if !seen[r.Source] {
			seen[r.Source] = true
			out = append(out, r.Source)
		}
	}
	return out
}
