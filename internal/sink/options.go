package sink

import (
	"io"
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/constants"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
)

// Format is an output table format.
type Format int

// Format constants.
const (
	FormatCSV Format = iota
	FormatXLSX
	FormatJSON
	FormatYAML
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatXLSX, FormatJSON, FormatYAML}

// IsValid checks if the format is valid.
func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// Extension returns the file extension of the format, with its dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return 0, errors.NewValidationError("format", s, "supported formats: csv, xlsx, json, yaml")
}

// ParseFormats parses a list of format names, dropping repeats.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool, len(names))
	out := make([]Format, 0, len(names))
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Options is the configuration for saving a table.
type Options struct {
	dir       string
	writer    io.Writer
	format    Format
	packageID string
	workbook  string
	sheet     string
}

// Dir returns the output directory.
func (o *Options) Dir() string {
	return o.dir
}

// Writer returns the writer, if any.
func (o *Options) Writer() io.Writer {
	return o.writer
}

// Format returns the output format.
func (o *Options) Format() Format {
	return o.format
}

// PackageID returns the submission package identifier used in file names.
func (o *Options) PackageID() string {
	return o.packageID
}

// Workbook returns the template workbook XLSX output is written into.
func (o *Options) Workbook() string {
	return o.workbook
}

// Sheet returns the sheet XLSX rows are written to.
func (o *Options) Sheet() string {
	return o.sheet
}

// Defaults returns the default save options.
func Defaults() *Options {
	return &Options{
		dir:    ".",
		format: FormatCSV,
		sheet:  constants.MetadataSheet,
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) Options {
	for _, opt := range opts {
		opt(o)
	}
	return *o
}

// Option is a function that configures save options.
type Option func(*Options)

// WithFormat for custom output format.
func WithFormat(f Format) Option {
	return func(o *Options) {
		o.format = f
	}
}

// WithDir for filesystem saves.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.dir = dir
	}
}

// WithWriter for custom outputs. The writer takes precedence over the
// directory.
func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.writer = w
	}
}

// WithPackageID sets the package identifier appended to file names.
func WithPackageID(id string) Option {
	return func(o *Options) {
		o.packageID = id
	}
}

// WithWorkbook writes XLSX output into a copy of the given template
// workbook instead of a blank one.
func WithWorkbook(path string) Option {
	return func(o *Options) {
		o.workbook = path
	}
}

// WithSheet sets the sheet XLSX rows are written to.
func WithSheet(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.sheet = name
		}
	}
}
