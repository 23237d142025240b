package sources

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// readRecords reads a JSON or YAML list of objects. Columns follow the
// order keys are first seen; keys missing from a record are null. JSON is
// read through the YAML decoder, which accepts it as a subset.
func readRecords(path string, o *Options) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var records []yaml.MapSlice
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, errors.WrapParse("records", path, err)
	}

	var raw []string
	index := make(map[string]int)
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		row := make(map[string]any, len(rec))
		for _, item := range rec {
			key := table.Format(table.Normalize(item.Key))
			if _, ok := index[key]; !ok {
				index[key] = len(raw)
				raw = append(raw, key)
			}
			row[key] = scalar(item.Value)
		}
		rows[i] = row
	}

	columns := headers(raw, len(raw), o.Underscores)
	renamed := make([]map[string]any, len(rows))
	for i, row := range rows {
		out := make(map[string]any, len(row))
		for j, key := range raw {
			if v, ok := row[key]; ok {
				out[columns[j]] = v
			}
		}
		renamed[i] = out
	}
	return table.FromRecords(columns, renamed)
}

// scalar flattens nested values to their YAML text so every cell stays a
// scalar.
func scalar(v any) any {
	switch v.(type) {
	case yaml.MapSlice, []any, map[string]any:
		out, err := yaml.MarshalWithOptions(v, yaml.Flow(true))
		if err != nil {
			return nil
		}
		return string(trimNewline(out))
	}
	return v
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
