// Package vocabulary resolves source terms to the controlled terms a
// submission template accepts.
//
// Value sets are read from a table holding a name column and a term
// column. A value set starts at the first row naming it and runs until a
// row names a different value set:
//
//	Value Set Name     | Term
//	primary_diagnosis  | Adenocarcinoma, NOS
//	                   | Carcinoma
//	site_of_resection  | Lung
//
// Terms are matched after Normalize, so "Adenocarcinoma NOS" resolves to
// "Adenocarcinoma, NOS".
package vocabulary

import (
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/constants"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

var normalizer = strings.NewReplacer(",", "", ";", "")

// Normalize removes the punctuation that differs between source terms and
// their controlled forms.
func Normalize(term string) string {
	return normalizer.Replace(term)
}

// Collision records two distinct terms of one value set that normalize to
// the same key. Kept is the term that appears first.
type Collision struct {
	Key     string
	Kept    string
	Dropped string
}

// Vocabulary maps normalized terms to their controlled form. It is
// immutable and safe for concurrent use.
type Vocabulary struct {
	attribute  string
	terms      []string
	index      map[string]string
	collisions []Collision
}

type options struct {
	nameColumn string
	termColumn string
	strict     bool
}

func defaultOptions() *options {
	return &options{
		nameColumn: constants.ValueSetNameColumn,
		termColumn: constants.TermColumn,
	}
}

// Option configures how a vocabulary is built.
type Option func(*options)

// WithColumns sets the value set name and term column names.
func WithColumns(name, term string) Option {
	return func(o *options) {
		o.nameColumn = name
		o.termColumn = term
	}
}

// WithStrict makes Build fail when two distinct terms normalize to the
// same key instead of keeping the first.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// Build extracts the value set named attribute from valueSets.
func Build(valueSets *table.Table, attribute string, opts ...Option) (*Vocabulary, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if valueSets == nil {
		return nil, &errors.ValueSetNotFoundError{Attribute: attribute, Message: "no value-set table"}
	}
	names, err := valueSets.Column(o.nameColumn)
	if err != nil {
		return nil, &errors.ValueSetNotFoundError{Attribute: attribute, Message: err.Error()}
	}
	terms, err := valueSets.Column(o.termColumn)
	if err != nil {
		return nil, &errors.ValueSetNotFoundError{Attribute: attribute, Message: err.Error()}
	}

	start := -1
	for i, name := range names {
		if !table.IsNull(name) && table.Format(name) == attribute {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, errors.NewValueSetNotFoundError(attribute)
	}

	v := &Vocabulary{attribute: attribute, index: make(map[string]string)}
	for i := start; i < len(names); i++ {
		if !table.IsNull(names[i]) && table.Format(names[i]) != attribute {
			break
		}
		if table.IsNull(terms[i]) {
			continue
		}
		term := table.Format(terms[i])
		key := Normalize(term)

		kept, exists := v.index[key]
		switch {
		case !exists:
			v.index[key] = term
			v.terms = append(v.terms, term)
		case kept != term:
			if o.strict {
				return nil, errors.NewAmbiguousTermError(key, []string{kept, term}, "")
			}
			v.collisions = append(v.collisions, Collision{Key: key, Kept: kept, Dropped: term})
		}
	}
	return v, nil
}

// Attribute returns the value set name.
func (v *Vocabulary) Attribute() string {
	return v.attribute
}

// Terms returns the distinct controlled terms in table order.
func (v *Vocabulary) Terms() []string {
	return append([]string(nil), v.terms...)
}

// Len returns the number of distinct controlled terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Collisions returns the terms dropped because an earlier term normalized
// to the same key.
func (v *Vocabulary) Collisions() []Collision {
	return append([]Collision(nil), v.collisions...)
}

// Lookup returns the controlled term for s, if any.
func (v *Vocabulary) Lookup(s string) (string, bool) {
	term, ok := v.index[Normalize(s)]
	return term, ok
}

// Resolve returns the controlled term for value, or value unchanged when
// no term matches. Null stays null.
func (v *Vocabulary) Resolve(value table.Value) table.Value {
	if table.IsNull(value) {
		return value
	}
	if term, ok := v.Lookup(table.Format(value)); ok {
		return term
	}
	return value
}

// ResolveAll resolves every value of a column.
func (v *Vocabulary) ResolveAll(values []table.Value) []table.Value {
	out := make([]table.Value, len(values))
	for i, value := range values {
		out[i] = v.Resolve(value)
	}
	return out
}

// Names returns the value set names declared in valueSets, in table order.
func Names(valueSets *table.Table, opts ...Option) ([]string, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if valueSets == nil {
		return nil, nil
	}
	return valueSets.Distinct(o.nameColumn)
}
