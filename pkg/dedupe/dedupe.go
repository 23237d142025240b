// Package dedupe removes duplicate rows from tables.
//
// Rows are compared on the canonical string form of their cells, so the
// integer 1 and the string "1" are the same value, while a null cell never
// equals an empty string.
package dedupe

import (
	"strconv"
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Keep selects which occurrence of a duplicate survives.
type Keep int

const (
	// KeepFirst keeps the first occurrence.
	KeepFirst Keep = iota
	// KeepLast keeps the last occurrence.
	KeepLast
)

// String returns "first" or "last".
func (k Keep) String() string {
	if k == KeepLast {
		return "last"
	}
	return "first"
}

// ParseKeep parses "first" or "last". Anything else is KeepFirst.
func ParseKeep(s string) Keep {
	if strings.EqualFold(s, "last") {
		return KeepLast
	}
	return KeepFirst
}

// Rows removes rows that duplicate an earlier row across all columns.
// Surviving rows keep their relative order.
func Rows(t *table.Table) *table.Table {
	positions := make([]int, t.Width())
	for j := range positions {
		positions[j] = j
	}
	return t.Take(survivors(t, positions, KeepFirst))
}

// By removes rows that duplicate another row on the given columns only.
func By(t *table.Table, columns []string, keep Keep) (*table.Table, error) {
	all := t.Columns()
	index := make(map[string]int, len(all))
	for j, c := range all {
		index[c] = j
	}
	positions := make([]int, len(columns))
	for k, c := range columns {
		if _, err := t.Column(c); err != nil {
			return nil, err
		}
		positions[k] = index[c]
	}
	return t.Take(survivors(t, positions, keep)), nil
}

func survivors(t *table.Table, positions []int, keep Keep) []int {
	keys := make([]string, t.Len())
	for i := range keys {
		keys[i] = rowKey(t.Row(i).Values(), positions)
	}

	chosen := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, seen := chosen[k]; seen && keep == KeepFirst {
			continue
		}
		chosen[k] = i
	}

	out := make([]int, 0, len(chosen))
	for i, k := range keys {
		if chosen[k] == i {
			out = append(out, i)
		}
	}
	return out
}

// rowKey length-prefixes each cell so that no two different rows share a key.
func rowKey(values []table.Value, positions []int) string {
	var b strings.Builder
	for _, j := range positions {
		s := table.Canonical(values[j])
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}
