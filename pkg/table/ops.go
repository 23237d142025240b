package table

import (
	"fmt"
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
)

// Filter returns the rows for which keep returns true, in order.
func (t *Table) Filter(keep func(Row) bool) *Table {
	rows := make([][]Value, 0, len(t.rows))
	for i, row := range t.rows {
		if keep(Row{t: t, i: i}) {
			rows = append(rows, row)
		}
	}
	return newUnchecked(t.Columns(), rows)
}

// Take returns the rows at the given positions, in the given order.
func (t *Table) Take(indices []int) *Table {
	rows := make([][]Value, len(indices))
	for k, i := range indices {
		rows[k] = t.rows[i]
	}
	return newUnchecked(t.Columns(), rows)
}

// Select returns a table restricted to the named columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	positions := make([]int, len(columns))
	for k, c := range columns {
		j, ok := t.index[c]
		if !ok {
			return nil, errors.NewMissingColumnError(c)
		}
		positions[k] = j
	}

	rows := make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out := make([]Value, len(positions))
		for k, j := range positions {
			out[k] = row[j]
		}
		rows[i] = out
	}
	return New(columns, rows...)
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(columns ...string) *Table {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	keep := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := t.Select(keep...)
	return out
}

// Rename returns a table with columns renamed according to names.
func (t *Table) Rename(names map[string]string) (*Table, error) {
	columns := t.Columns()
	for i, c := range columns {
		if n, ok := names[c]; ok {
			columns[i] = n
		}
	}
	return New(columns, t.rows...)
}

// WithColumn returns a table with the named column set to values. An
// existing column is replaced in place; a new column is appended.
func (t *Table) WithColumn(column string, values []Value) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, errors.NewValidationError(column, len(values),
			fmt.Sprintf("column has %d values, table has %d rows", len(values), len(t.rows)))
	}

	columns := t.Columns()
	j, exists := t.index[column]
	if !exists {
		columns = append(columns, column)
		j = len(columns) - 1
	}

	rows := make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out := make([]Value, len(columns))
		copy(out, row)
		out[j] = Normalize(values[i])
		rows[i] = out
	}
	return New(columns, rows...)
}

// WithConstant returns a table with the named column set to v on every row.
func (t *Table) WithConstant(column string, v Value) *Table {
	values := make([]Value, len(t.rows))
	for i := range values {
		values[i] = v
	}
	out, _ := t.WithColumn(column, values)
	return out
}

// Concat stacks tables vertically. The result has the union of the input
// columns in first-seen order; cells from tables lacking a column are null.
func Concat(tables ...*Table) *Table {
	var columns []string
	seen := make(map[string]bool)
	total := 0
	for _, tbl := range tables {
		if tbl == nil {
			continue
		}
		total += tbl.Len()
		for _, c := range tbl.columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}

	rows := make([][]Value, 0, total)
	for _, tbl := range tables {
		if tbl == nil {
			continue
		}
		for _, row := range tbl.rows {
			out := make([]Value, len(columns))
			for k, c := range columns {
				if j, ok := tbl.index[c]; ok {
					out[k] = row[j]
				}
			}
			rows = append(rows, out)
		}
	}
	return newUnchecked(columns, rows)
}

// LeftJoin keeps every row of t and appends the columns of right, matching
// t's leftKey against right's rightKey on canonical string form. A left row
// with several matches is repeated once per match, in right's order; a row
// with none gets nulls. Right columns already present in t (including a
// rightKey with the same name as leftKey) are not duplicated. Null keys
// never match.
func (t *Table) LeftJoin(right *Table, leftKey, rightKey string) (*Table, error) {
	lj, ok := t.index[leftKey]
	if !ok {
		return nil, errors.NewMissingColumnError(leftKey)
	}
	rj, ok := right.index[rightKey]
	if !ok {
		return nil, errors.NewMissingColumnError(rightKey)
	}

	var extra []int
	columns := t.Columns()
	for j, c := range right.columns {
		if t.Has(c) {
			continue
		}
		extra = append(extra, j)
		columns = append(columns, c)
	}

	matches := make(map[string][]int)
	for i, row := range right.rows {
		if IsNull(row[rj]) {
			continue
		}
		key := Canonical(row[rj])
		matches[key] = append(matches[key], i)
	}

	rows := make([][]Value, 0, len(t.rows))
	for _, row := range t.rows {
		var hits []int
		if !IsNull(row[lj]) {
			hits = matches[Canonical(row[lj])]
		}
		if len(hits) == 0 {
			out := make([]Value, len(columns))
			copy(out, row)
			rows = append(rows, out)
			continue
		}
		for _, h := range hits {
			out := make([]Value, len(columns))
			copy(out, row)
			for k, j := range extra {
				out[len(row)+k] = right.rows[h][j]
			}
			rows = append(rows, out)
		}
	}
	return newUnchecked(columns, rows), nil
}

// Explode splits the string values of column on sep and emits one row per
// piece, with surrounding whitespace trimmed. Nulls and non-string values
// are kept as a single row.
func (t *Table) Explode(column, sep string) (*Table, error) {
	j, ok := t.index[column]
	if !ok {
		return nil, errors.NewMissingColumnError(column)
	}

	rows := make([][]Value, 0, len(t.rows))
	for _, row := range t.rows {
		s, isString := row[j].(string)
		if !isString {
			rows = append(rows, row)
			continue
		}
		for _, piece := range strings.Split(s, sep) {
			out := append([]Value(nil), row...)
			out[j] = strings.TrimSpace(piece)
			rows = append(rows, out)
		}
	}
	return newUnchecked(t.Columns(), rows), nil
}

// Distinct returns the distinct non-null canonical values of column, in
// first-seen order.
func (t *Table) Distinct(column string) ([]string, error) {
	values, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		s := Format(v)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}
