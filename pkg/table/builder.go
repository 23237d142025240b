package table

import (
	"fmt"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
)

// Builder assembles a table column by column. Every column must have the
// row count the builder was created with.
type Builder struct {
	rows    int
	columns []string
	data    [][]Value
	seen    map[string]bool
}

// NewBuilder creates a builder for a table with the given number of rows.
func NewBuilder(rows int) *Builder {
	return &Builder{rows: rows, seen: make(map[string]bool)}
}

// Add appends a column.
func (b *Builder) Add(column string, values []Value) error {
	if b.seen[column] {
		return errors.NewValidationError("column", column, fmt.Sprintf("duplicate column %q", column))
	}
	if len(values) != b.rows {
		return errors.NewValidationError(column, len(values),
			fmt.Sprintf("column has %d values, want %d", len(values), b.rows))
	}
	b.seen[column] = true
	b.columns = append(b.columns, column)
	b.data = append(b.data, values)
	return nil
}

// AddConstant appends a column holding v on every row.
func (b *Builder) AddConstant(column string, v Value) error {
	values := make([]Value, b.rows)
	for i := range values {
		values[i] = v
	}
	return b.Add(column, values)
}

// Build returns the assembled table.
func (b *Builder) Build() *Table {
	rows := make([][]Value, b.rows)
	for i := range rows {
		row := make([]Value, len(b.columns))
		for j := range b.columns {
			row[j] = Normalize(b.data[j][i])
		}
		rows[i] = row
	}
	return newUnchecked(append([]string(nil), b.columns...), rows)
}
