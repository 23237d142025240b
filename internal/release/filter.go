package release

import (
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Filter selects the rows a template is built from. A row matches when
// every part that is set holds: Column's value is one of In, any of Any
// matches, all of All match, and Not does not match. The zero Filter
// matches every row.
//
//	filter:
//	  any:
//	    - {column: Imaging_Assay_Type, in: ["H&E"]}
//	    - {column: HTAN_Center, in: [HTAN SRRS]}
type Filter struct {
	Column string    `mapstructure:"column"`
	In     []any     `mapstructure:"in"`
	Any    []*Filter `mapstructure:"any"`
	All    []*Filter `mapstructure:"all"`
	Not    *Filter   `mapstructure:"not"`

	set map[string]bool
}

// Columns returns every column the filter reads.
func (f *Filter) Columns() []string {
	if f == nil {
		return nil
	}
	var out []string
	if f.Column != "" {
		out = append(out, f.Column)
	}
	for _, sub := range f.Any {
		out = append(out, sub.Columns()...)
	}
	for _, sub := range f.All {
		out = append(out, sub.Columns()...)
	}
	return append(out, f.Not.Columns()...)
}

// Apply returns the rows of t the filter matches. Reading a column t does
// not have is a MissingColumnError.
func (f *Filter) Apply(t *table.Table) (*table.Table, error) {
	if f == nil {
		return t, nil
	}
	for _, c := range f.Columns() {
		if !t.Has(c) {
			return nil, errors.NewMissingColumnError(c)
		}
	}
	f.prepare()
	return t.Filter(f.Match), nil
}

func (f *Filter) prepare() {
	if f == nil {
		return
	}
	if f.Column != "" && f.set == nil {
		f.set = make(map[string]bool, len(f.In))
		for _, v := range f.In {
			f.set[table.Canonical(table.Normalize(v))] = true
		}
	}
	for _, sub := range f.Any {
		sub.prepare()
	}
	for _, sub := range f.All {
		sub.prepare()
	}
	f.Not.prepare()
}

func (f *Filter) contains(v table.Value) bool {
	key := table.Canonical(v)
	if f.set != nil {
		return f.set[key]
	}
	for _, in := range f.In {
		if table.Canonical(table.Normalize(in)) == key {
			return true
		}
	}
	return false
}

// Match reports whether the row matches.
func (f *Filter) Match(r table.Row) bool {
	if f == nil {
		return true
	}
	if f.Column != "" {
		if !f.contains(r.Get(f.Column)) {
			return false
		}
	}
	if len(f.Any) > 0 {
		matched := false
		for _, sub := range f.Any {
			if sub.Match(r) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, sub := range f.All {
		if !sub.Match(r) {
			return false
		}
	}
	return f.Not == nil || !f.Not.Match(r)
}
