// Package sink writes assembled submission tables.
//
// Tables are written as CSV, as JSON or YAML lists of records, or into
// the "Metadata" sheet of an XLSX workbook. When a template workbook is
// configured, its Metadata sheet is replaced and every other sheet is
// kept, which is the form the CDS team accepts for upload.
package sink

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/mc2-center/mc2-data-models/pkg/constants"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// FileName returns the output file name of a template table: spaces in
// the template name become underscores, and the package id is appended.
//
//	FileName("CDS Genomics", "mc2_batch_2", FormatCSV) // CDS_Genomics_mc2_batch_2.csv
func FileName(template, packageID string, f Format) string {
	base := strings.ReplaceAll(strings.TrimSpace(template), " ", "_")
	if packageID != "" {
		base += "_" + packageID
	}
	return base + f.Extension()
}

// Save writes t for a template and returns the path written. With a
// writer configured, the table is written there and the path is empty.
func Save(template string, t *table.Table, opts ...Option) (string, error) {
	o := Defaults().Apply(opts...)
	if !o.format.IsValid() {
		return "", errors.NewValidationError("format", o.format.String(), "unsupported output format")
	}

	if o.writer != nil {
		return "", write(o.writer, t, &o)
	}

	if err := os.MkdirAll(o.dir, constants.DirPermissions); err != nil {
		return "", errors.WrapIO("create", o.dir, err)
	}
	path := filepath.Join(o.dir, FileName(template, o.packageID, o.format))

	if o.format == FormatXLSX {
		wb, err := workbook(t, &o)
		if err != nil {
			return "", err
		}
		defer func() { _ = wb.Close() }()
		if err := wb.SaveAs(path); err != nil {
			return "", errors.WrapIO("write", path, err)
		}
		return path, nil
	}

	var buf bytes.Buffer
	if err := write(&buf, t, &o); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), constants.FilePermissions); err != nil {
		return "", errors.WrapIO("write", path, err)
	}
	return path, nil
}

// Write writes t to w in the given format.
func Write(w io.Writer, t *table.Table, f Format) error {
	o := Defaults().Apply(WithFormat(f))
	return write(w, t, &o)
}

func write(w io.Writer, t *table.Table, o *Options) error {
	switch o.format {
	case FormatCSV:
		return writeCSV(w, t)
	case FormatJSON:
		return writeJSON(w, t)
	case FormatYAML:
		return writeYAML(w, t)
	case FormatXLSX:
		wb, err := workbook(t, o)
		if err != nil {
			return err
		}
		defer func() { _ = wb.Close() }()
		if _, err := wb.WriteTo(w); err != nil {
			return errors.WrapIO("write", "xlsx", err)
		}
		return nil
	}
	return errors.NewValidationError("format", o.format.String(), "unsupported output format")
}

func writeCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	record := make([]string, t.Width())
	for _, row := range t.Records() {
		for i, v := range row {
			record[i] = table.Format(v)
		}
		if err := cw.Write(record); err != nil {
			return errors.WrapIO("write", "csv", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	return nil
}

// record marshals one row as a JSON object with keys in column order.
type record struct {
	columns []string
	values  []table.Value
}

func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(w io.Writer, t *table.Table) error {
	columns := t.Columns()
	records := make([]record, t.Len())
	for i, row := range t.Records() {
		records[i] = record{columns: columns, values: row}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return errors.WrapIO("write", "json", err)
	}
	return nil
}

func writeYAML(w io.Writer, t *table.Table) error {
	columns := t.Columns()
	records := make([]yaml.MapSlice, t.Len())
	for i, row := range t.Records() {
		rec := make(yaml.MapSlice, len(columns))
		for j, c := range columns {
			rec[j] = yaml.MapItem{Key: c, Value: row[j]}
		}
		records[i] = rec
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return errors.WrapParse("yaml", "output", err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.WrapIO("write", "yaml", err)
	}
	return nil
}
