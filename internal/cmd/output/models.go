package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/assemble"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

// Render writes data in format. Table and CSV output use view; JSON and
// YAML encode data itself.
func Render(w io.Writer, format Format, data any, view Data) error {
	switch format {
	case FormatJSON, FormatYAML:
		return NewFormatter(format).Format(w, data)
	default:
		return NewFormatter(format).Format(w, view)
	}
}

// FromTable renders a table with nulls shown as empty cells.
func FromTable(t *table.Table) Data {
	rows := make([][]string, t.Len())
	for i, rec := range t.Records() {
		row := make([]string, len(rec))
		for j, v := range rec {
			row[j] = table.Format(v)
		}
		rows[i] = row
	}
	return Data{Headers: t.Columns(), Rows: rows}
}

// Report is the serializable form of a template report.
type Report struct {
	Template          string   `json:"template"`
	Status            string   `json:"status"`
	SourceRows        int      `json:"source_rows"`
	Rows              int      `json:"rows"`
	Columns           int      `json:"columns"`
	DuplicatesRemoved int      `json:"duplicates_removed"`
	DurationMS        int64    `json:"duration_ms"`
	Kind              string   `json:"kind,omitempty"`
	Attributes        []string `json:"attributes,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// Reports converts assembly reports.
func Reports(reports []assemble.Report) []Report {
	out := make([]Report, len(reports))
	for i, r := range reports {
		out[i] = Report{
			Template:          r.Template,
			Status:            "ok",
			SourceRows:        r.SourceRows,
			Rows:              r.Rows,
			Columns:           r.Columns,
			DuplicatesRemoved: r.DuplicatesRemoved,
			DurationMS:        r.Duration.Milliseconds(),
		}
		if !r.OK() {
			out[i].Status = "failed"
			out[i].Kind = r.Kind()
			out[i].Attributes = r.Attributes()
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

// ReportsData renders reports, one row per template.
func ReportsData(reports []Report) Data {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		if r.Status != "ok" {
			rows[i] = []string{r.Template, r.Kind, strconv.Itoa(r.SourceRows), "-", "-", "-", strings.Join(r.Attributes, ", ")}
			continue
		}
		rows[i] = []string{
			r.Template,
			r.Status,
			strconv.Itoa(r.SourceRows),
			strconv.Itoa(r.Rows),
			strconv.Itoa(r.Columns),
			strconv.Itoa(r.DuplicatesRemoved),
			"",
		}
	}
	return Data{
		Headers:         []string{"Template", "Status", "Source Rows", "Rows", "Columns", "Duplicates", "Attributes"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft},
	}
}

// Rule is the serializable form of a mapping rule.
type Rule struct {
	Target    string   `json:"target_attribute"`
	Kind      string   `json:"kind"`
	Source    string   `json:"source_attribute,omitempty"`
	Value     any      `json:"fixed_value,omitempty"`
	Entries   int      `json:"dict_entries,omitempty"`
	Transform []string `json:"transform,omitempty"`
	ValueSet  bool     `json:"value_set,omitempty"`
}

// Rules converts the rules of a spec.
func Rules(spec *mapping.Spec) []Rule {
	out := make([]Rule, len(spec.Rules))
	for i, r := range spec.Rules {
		out[i] = Rule{
			Target:   r.Target,
			Kind:     r.Kind.String(),
			Source:   r.Source,
			Value:    r.Value,
			Entries:  len(r.Dict),
			ValueSet: r.ValueSet,
		}
		if r.Transform != nil {
			out[i].Transform = r.Transform.Ops()
		}
	}
	return out
}

// RulesData renders rules, one row per target attribute.
func RulesData(rules []Rule) Data {
	rows := make([][]string, len(rules))
	for i, r := range rules {
		detail := ""
		switch r.Kind {
		case mapping.Fixed.String():
			detail = table.Format(table.Normalize(r.Value))
		case mapping.DictLookup.String():
			detail = strconv.Itoa(r.Entries) + " entries"
		case mapping.Expression.String():
			detail = strings.Join(r.Transform, " | ")
			if detail == "" {
				detail = "(identity)"
			}
		}
		valueSet := ""
		if r.ValueSet {
			valueSet = "yes"
		}
		rows[i] = []string{strconv.Itoa(i + 1), r.Target, r.Kind, r.Source, detail, valueSet}
	}
	return Data{
		Headers:         []string{"#", "Target", "Kind", "Source", "Detail", "Value Set"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignCenter},
	}
}

// Template summarizes one template of a mapping document.
type Template struct {
	Name      string   `json:"name"`
	Rules     int      `json:"rules"`
	Sources   []string `json:"sources"`
	ValueSets []string `json:"value_set_attributes,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Templates summarizes every template of doc. Templates that fail to
// compile carry their error.
func Templates(doc *mapping.Document) []Template {
	names := doc.Templates()
	out := make([]Template, len(names))
	for i, name := range names {
		out[i].Name = name
		spec, err := doc.Load(name)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		out[i].Rules = len(spec.Rules)
		out[i].Sources = spec.Sources()
		out[i].ValueSets = spec.ValueSetAttributes()
	}
	return out
}

// TemplatesData renders template summaries.
func TemplatesData(templates []Template) Data {
	rows := make([][]string, len(templates))
	for i, t := range templates {
		status := "ok"
		if t.Error != "" {
			status = t.Error
		}
		rows[i] = []string{t.Name, strconv.Itoa(t.Rules), strconv.Itoa(len(t.Sources)), strings.Join(t.ValueSets, ", "), status}
	}
	return Data{
		Headers:         []string{"Template", "Rules", "Sources", "Value Sets", "Status"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignLeft, AlignLeft},
	}
}

// Ops renders the registered transform ops.
func Ops(r *transform.Registry) Data {
	names := r.Names()
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	return Data{Headers: []string{"Op"}, Rows: rows}
}
