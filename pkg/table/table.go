// Package table provides the typed, immutable table used for source record
// sets, value-set tables and output tables.
//
// A Table declares its columns up front. Asking for a column it does not
// declare fails with a MissingColumnError instead of yielding nulls:
//
//	src := table.MustNew([]string{"entityId", "Gender"},
//	    []table.Value{"syn1", "female"},
//	    []table.Value{"syn2", nil},
//	)
//	genders, err := src.Column("Gender")
//
// Tables are never modified in place; every operation returns a new Table,
// so a Table can be read from any number of goroutines.
package table

import (
	"fmt"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
)

// Table is an ordered set of rows over declared columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates a table from column names and rows. Column names must be
// unique and non-empty, and every row must have one value per column.
func New(columns []string, rows ...[]Value) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, errors.NewValidationError("columns", i, "column name cannot be empty")
		}
		if _, dup := index[c]; dup {
			return nil, errors.NewValidationError("columns", c, fmt.Sprintf("duplicate column %q", c))
		}
		index[c] = i
	}

	data := make([][]Value, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewValidationError("rows", i,
				fmt.Sprintf("row %d has %d values, want %d", i, len(row), len(columns)))
		}
		data[i] = normalizeRow(row)
	}

	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    data,
	}, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(columns []string, rows ...[]Value) *Table {
	t, err := New(columns, rows...)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with the given columns and no rows.
func Empty(columns ...string) *Table {
	return MustNew(columns)
}

// FromRecords builds a table from column-keyed records. Columns absent from
// a record are null.
func FromRecords(columns []string, records []map[string]any) (*Table, error) {
	rows := make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		rows[i] = row
	}
	return New(columns, rows...)
}

// newUnchecked wraps already validated and normalized data without copying.
func newUnchecked(columns []string, rows [][]Value) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Table{columns: columns, index: index, rows: rows}
}

func normalizeRow(row []Value) []Value {
	out := make([]Value, len(row))
	for i, v := range row {
		out[i] = Normalize(v)
	}
	return out
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Has reports whether the table declares the column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Column returns a copy of the named column's values.
func (t *Table) Column(column string) ([]Value, error) {
	j, ok := t.index[column]
	if !ok {
		return nil, errors.NewMissingColumnError(column)
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Value returns the cell at row i in the named column, or nil when the
// column is not declared.
func (t *Table) Value(i int, column string) Value {
	j, ok := t.index[column]
	if !ok {
		return nil
	}
	return t.rows[i][j]
}

// Row returns a view of row i.
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Records returns a copy of all rows.
func (t *Table) Records() [][]Value {
	out := make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = append([]Value(nil), row...)
	}
	return out
}

// Equal reports whether both tables have the same columns and the same
// canonical cell values in the same order.
func (t *Table) Equal(other *Table) bool {
	if t.Width() != other.Width() || t.Len() != other.Len() {
		return false
	}
	for i, c := range t.columns {
		if other.columns[i] != c {
			return false
		}
	}
	for i, row := range t.rows {
		for j, v := range row {
			if Canonical(v) != Canonical(other.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// Row is a read-only view of a single table row.
type Row struct {
	t *Table
	i int
}

// Index returns the row's position in its table.
func (r Row) Index() int {
	return r.i
}

// Get returns the value in the named column, or nil if undeclared.
func (r Row) Get(column string) Value {
	return r.t.Value(r.i, column)
}

// Values returns a copy of the row's values in column order.
func (r Row) Values() []Value {
	return append([]Value(nil), r.t.rows[r.i]...)
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]Value {
	out := make(map[string]Value, len(r.t.columns))
	for j, c := range r.t.columns {
		out[c] = r.t.rows[r.i][j]
	}
	return out
}
