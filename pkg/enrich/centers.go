// Package enrich prepares merged source tables before mapping: it attaches
// research center details, splits multi-valued columns and derives new
// columns from existing ones.
package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Center field names, as they appear in the center directory and in the
// enriched table.
const (
	FieldPIFirst = "pi_first"
	FieldPILast  = "pi_last"
	FieldPIEmail = "pi_email"
	FieldBucket  = "bucket"
	FieldConsent = "consent"
)

// Center holds the per-center details submission tables need.
type Center struct {
	PIFirst string `json:"pi_first"`
	PILast  string `json:"pi_last"`
	PIEmail string `json:"pi_email"`
	Bucket  string `json:"bucket,omitempty"`
	Consent string `json:"consent,omitempty"`
}

// Field returns a center field by its directory name.
func (c Center) Field(name string) (string, bool) {
	switch name {
	case FieldPIFirst:
		return c.PIFirst, true
	case FieldPILast:
		return c.PILast, true
	case FieldPIEmail:
		return c.PIEmail, true
	case FieldBucket:
		return c.Bucket, true
	case FieldConsent:
		return c.Consent, true
	}
	return "", false
}

// Centers maps an identifier prefix, such as "HTA1", to its center.
type Centers map[string]Center

// LoadCenters reads a center directory from a JSON file.
func LoadCenters(path string) (Centers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	c, err := ParseCenters(data)
	if err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return c, nil
}

// ParseCenters decodes a center directory.
func ParseCenters(data []byte) (Centers, error) {
	var c Centers
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// Prefix returns the part of an identifier before the first underscore.
func Prefix(id string) string {
	prefix, _, _ := strings.Cut(id, "_")
	return prefix
}

// Lookup returns the center owning an identifier.
func (c Centers) Lookup(id string) (Center, error) {
	center, ok := c[Prefix(id)]
	if !ok {
		return Center{}, fmt.Errorf("%w: no center for identifier %q (prefix %q)", errors.ErrNotFound, id, Prefix(id))
	}
	return center, nil
}

// Prefixes returns the known prefixes, sorted.
func (c Centers) Prefixes() []string {
	out := make([]string, 0, len(c))
	for p := range c {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// AddFields appends the named center fields to t, looking up each row's
// center from idColumn. Rows with a null identifier get null fields; an
// identifier with an unknown prefix is an error.
func (c Centers) AddFields(t *table.Table, idColumn string, fields ...string) (*table.Table, error) {
	ids, err := t.Column(idColumn)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if _, ok := (Center{}).Field(f); !ok {
			return nil, errors.NewValidationError("fields", f, fmt.Sprintf("unknown center field %q", f))
		}
	}

	columns := make([][]table.Value, len(fields))
	for k := range columns {
		columns[k] = make([]table.Value, len(ids))
	}
	for i, id := range ids {
		if table.IsNull(id) {
			continue
		}
		center, err := c.Lookup(table.Format(id))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		for k, f := range fields {
			v, _ := center.Field(f)
			columns[k][i] = v
		}
	}

	out := t
	for k, f := range fields {
		if out, err = out.WithColumn(f, columns[k]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
