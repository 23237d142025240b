package sources

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Format identifies how a file source is decoded.
type Format string

// Supported file formats.
const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name. The empty string selects detection by
// file extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatCSV, FormatTSV, FormatXLSX, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "xls", "excel":
		return FormatXLSX, nil
	}
	return "", errors.NewValidationError("format", s, "supported formats: csv, tsv, xlsx, json, yaml")
}

// DetectFormat returns the format implied by a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.NewValidationError("path", path, "cannot detect format from extension")
}

// File is a Source backed by a file on disk.
type File struct {
	id      ID
	path    string
	options *Options
}

// Options configures how a file is decoded.
type Options struct {
	Format Format
	// Sheet selects the workbook sheet; the first sheet when empty.
	Sheet string
	// Delimiter overrides the CSV delimiter.
	Delimiter rune
	// Underscores replaces spaces in header names with underscores.
	Underscores bool
	// KeepBlankRows keeps rows whose cells are all empty.
	KeepBlankRows bool
}

// Option configures a file source.
type Option func(*Options)

// WithFormat forces a format instead of detecting it from the extension.
func WithFormat(f Format) Option {
	return func(o *Options) { o.Format = f }
}

// WithSheet selects the workbook sheet to read.
func WithSheet(name string) Option {
	return func(o *Options) { o.Sheet = name }
}

// WithDelimiter sets the field delimiter of delimited text files.
func WithDelimiter(r rune) Option {
	return func(o *Options) { o.Delimiter = r }
}

// WithUnderscoreHeaders replaces spaces in header names with underscores.
func WithUnderscoreHeaders() Option {
	return func(o *Options) { o.Underscores = true }
}

// WithBlankRows keeps rows whose cells are all empty.
func WithBlankRows() Option {
	return func(o *Options) { o.KeepBlankRows = true }
}

// NewFile creates a file source.
func NewFile(id ID, path string, opts ...Option) *File {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return &File{id: id, path: path, options: o}
}

// ID returns the source ID.
func (f *File) ID() ID { return f.id }

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Load reads the file into a table.
func (f *File) Load(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := f.options.Format
	if format == FormatAuto {
		detected, err := DetectFormat(f.path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	switch format {
	case FormatCSV:
		return readDelimited(f.path, f.options, ',')
	case FormatTSV:
		return readDelimited(f.path, f.options, '\t')
	case FormatXLSX:
		return readWorkbook(f.path, f.options)
	case FormatJSON, FormatYAML:
		return readRecords(f.path, f.options)
	}
	return nil, errors.NewValidationError("format", string(format), "unsupported format")
}

// fromGrid turns a header row plus data rows of strings into a table.
// Empty cells are null. Rows may be ragged; missing trailing cells are null
// and unnamed trailing columns are named column_N.
func fromGrid(grid [][]string, o *Options) (*table.Table, error) {
	if len(grid) == 0 {
		return table.Empty(), nil
	}

	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}
	columns := headers(grid[0], width, o.Underscores)

	rows := make([][]table.Value, 0, len(grid)-1)
	for _, raw := range grid[1:] {
		row := make([]table.Value, width)
		blank := true
		for i, cell := range raw {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			row[i] = cell
			blank = false
		}
		if blank && !o.KeepBlankRows {
			continue
		}
		rows = append(rows, row)
	}
	return table.New(columns, rows...)
}

// headers names every column. Blank names become column_N (1-based) and
// repeated names get a .N suffix.
func headers(raw []string, width int, underscores bool) []string {
	out := make([]string, width)
	seen := make(map[string]int, width)
	for i := range width {
		name := ""
		if i < len(raw) {
			name = strings.TrimSpace(raw[i])
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if underscores {
			name = strings.ReplaceAll(name, " ", "_")
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		}
		seen[name]++
		out[i] = name
	}
	return out
}
