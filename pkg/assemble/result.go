package assemble

import (
	"time"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Report describes the outcome of one template.
type Report struct {
	Template          string
	SourceRows        int
	Rows              int
	Columns           int
	DuplicatesRemoved int
	Duration          time.Duration
	Err               error
}

// OK reports whether the template was assembled.
func (r Report) OK() bool {
	return r.Err == nil
}

// Kind returns the error kind of a failed template, or "" on success.
func (r Report) Kind() string {
	return errors.Kind(r.Err)
}

// Attributes returns the target attributes a failure was attributed to.
func (r Report) Attributes() []string {
	return errors.Attributes(r.Err)
}

// Result holds the tables produced by one Assemble call.
type Result struct {
	RunID string

	// Tables holds every assembled table by template name. Failed templates
	// are absent.
	Tables map[string]*table.Table

	// Order lists assembled templates in request order.
	Order []string

	// Reports lists every attempted template in request order.
	Reports []Report
}

// Table returns the table assembled for template.
func (r *Result) Table(template string) (*table.Table, bool) {
	t, ok := r.Tables[template]
	return t, ok
}

// Failed returns the reports of failed templates.
func (r *Result) Failed() []Report {
	var out []Report
	for _, rep := range r.Reports {
		if !rep.OK() {
			out = append(out, rep)
		}
	}
	return out
}

// Err joins the failures of every failed template, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, rep := range r.Reports {
		if rep.Err != nil {
			errs = append(errs, rep.Err)
		}
	}
	return errors.Join(errs...)
}
