package mapping_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

func loadTestdata(t *testing.T) *mapping.Document {
	t.Helper()
	doc, err := mapping.LoadFile(filepath.Join("testdata", "mappings.yaml"))
	require.NoError(t, err)
	return doc
}

func TestLoadFile(t *testing.T) {
	doc := loadTestdata(t)
	assert.Equal(t, []string{"CDS Genomics", "CDS Imaging Participant Information"}, doc.Templates())
	assert.True(t, doc.Has("CDS Genomics"))
	assert.NoError(t, doc.Validate())

	spec, err := doc.Load("CDS Genomics")
	require.NoError(t, err)
	assert.Equal(t, "CDS Genomics", spec.Template)
	assert.Equal(t, []string{
		"phs_accession", "study_data_types", "sex", "age_at_diagnosis", "primary_diagnosis", "sample_tumor_status",
	}, spec.Targets())

	kinds := make([]mapping.Kind, len(spec.Rules))
	for i, r := range spec.Rules {
		kinds[i] = r.Kind
	}
	assert.Equal(t, []mapping.Kind{
		mapping.Unmapped, mapping.Fixed, mapping.DictLookup, mapping.Expression, mapping.Expression, mapping.Unmapped,
	}, kinds)

	fixed, ok := spec.Rule("study_data_types")
	require.True(t, ok)
	assert.Equal(t, "Genomic", fixed.Value)

	sex, _ := spec.Rule("sex")
	assert.Equal(t, "Gender", sex.Source)
	assert.Equal(t, "Female", sex.Dict["female"])

	age, _ := spec.Rule("age_at_diagnosis")
	assert.Equal(t, "Age_at_Diagnosis", age.Source, "spaces become underscores")
	assert.Equal(t, []string{"null_if", "scale", "to_int", "clamp"}, age.Transform.Ops())

	assert.Equal(t, []string{"primary_diagnosis"}, spec.ValueSetAttributes())
	assert.Equal(t, []string{"Gender", "Age_at_Diagnosis", "Primary_Diagnosis"}, spec.Sources())

	imaging, err := doc.Load("CDS Imaging Participant Information")
	require.NoError(t, err)
	assert.Equal(t, []string{"site_of_resection_or_biopsy"}, imaging.ValueSetAttributes())
	id, _ := imaging.Rule("participant_id")
	assert.Equal(t, mapping.Expression, id.Kind, "an empty transform is an identity expression")
	assert.Equal(t, 0, id.Transform.Len())
}

func TestLoadSpecNotFound(t *testing.T) {
	doc := loadTestdata(t)
	_, err := doc.Load("CDS Proteomics")
	require.Error(t, err)
	assert.True(t, errors.IsSpecNotFound(err))
	assert.Contains(t, err.Error(), "CDS Genomics")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := mapping.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestParseErrors(t *testing.T) {
	_, err := mapping.Parse([]byte("a: [unclosed"))
	require.Error(t, err)
	var pe *errors.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestMalformedRules(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing target",
			doc:  "T:\n  attributes:\n    - source_attribute: x\n",
			want: "target_attribute is required",
		},
		{
			name: "duplicate target",
			doc:  "T:\n  attributes:\n    - target_attribute: a\n    - target_attribute: a\n",
			want: "duplicate target attribute",
		},
		{
			name: "fixed with dict",
			doc:  "T:\n  attributes:\n    - target_attribute: a\n      source_attribute: x\n      fixed_value: 1\n      dict: {a: b}\n",
			want: "fixed_value cannot be combined",
		},
		{
			name: "unmapped with derivation",
			doc:  "T:\n  attributes:\n    - target_attribute: a\n      unmapped: true\n      fixed_value: 1\n",
			want: "unmapped rule cannot declare",
		},
		{
			name: "dict without source",
			doc:  "T:\n  attributes:\n    - target_attribute: a\n      dict: {a: b}\n",
			want: "source_attribute is required",
		},
		{
			name: "unknown op",
			doc:  "T:\n  attributes:\n    - target_attribute: a\n      source_attribute: x\n      transform: [eval]\n",
			want: `unknown op "eval"`,
		},
		{
			name: "legacy map expression",
			doc:  "T:\n  attributes:\n    - target_attribute: a\n      source_attribute: x\n      map: \"[x for x in source_col]\"\n",
			want: "executable map expressions are not supported",
		},
		{
			name: "no attributes",
			doc:  "T:\n  description: nothing\n",
			want: "attributes list",
		},
		{
			name: "value set on fixed",
			doc:  "T:\n  attributes:\n    - target_attribute: a\n      fixed_value: x\n      value_set: true\n",
			want: "value set resolution needs a derived value",
		},
		{
			name: "unknown value set attribute",
			doc:  "T:\n  value_set_attributes: [b]\n  attributes:\n    - target_attribute: a\n",
			want: "does not declare",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := mapping.Parse([]byte(tt.doc))
			require.NoError(t, err)

			_, err = doc.Load("T")
			require.Error(t, err)
			assert.True(t, errors.IsMalformedRule(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Error(t, doc.Validate())
		})
	}
}

func TestUnmappedDefault(t *testing.T) {
	doc, err := mapping.Parse([]byte("T:\n  attributes:\n    - target_attribute: a\n      source_attribute: x\n    - target_attribute: b\n      unmapped: true\n"))
	require.NoError(t, err)

	spec, err := doc.Load("T")
	require.NoError(t, err)
	for _, r := range spec.Rules {
		assert.Equal(t, mapping.Unmapped, r.Kind, r.Target)
	}
}

func TestMalformedTemplateIsolated(t *testing.T) {
	doc, err := mapping.Parse([]byte("Good:\n  attributes:\n    - target_attribute: a\nBad:\n  attributes:\n    - source_attribute: x\n"))
	require.NoError(t, err)

	_, err = doc.Load("Good")
	assert.NoError(t, err)

	err = doc.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsMalformedRule(err))
}

func TestWithRegistry(t *testing.T) {
	doc, err := mapping.Parse([]byte("T:\n  attributes:\n    - target_attribute: a\n      source_attribute: x\n      transform: [trim]\n"),
		mapping.WithRegistry(transform.NewRegistry()))
	require.NoError(t, err)

	_, err = doc.Load("T")
	require.Error(t, err)
	assert.True(t, errors.IsMalformedRule(err))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Fixed", mapping.Fixed.String())
	assert.Equal(t, "DictLookup", mapping.DictLookup.String())
	assert.Equal(t, "Expression", mapping.Expression.String())
	assert.Equal(t, "Unmapped", mapping.Unmapped.String())
}

func TestParse_TransformParameters(t *testing.T) {
	tests := []struct {
		name   string
		rule   string
		source *table.Table
		want   []table.Value
	}{
		{
			name: "null_if values",
			rule: `
      source_attribute: Age
      transform:
        - op: null_if
          values: [unknown, Not Reported]`,
			source: table.MustNew([]string{"Age"}, []table.Value{"5"}, []table.Value{"unknown"}, []table.Value{"Not Reported"}),
			want:   []table.Value{"5", nil, nil},
		},
		{
			name: "bucket cases",
			rule: `
      source_attribute: Age
      transform:
        - op: bucket
          cases:
            - {lt: 18, value: 18}
            - {gt: 89, value: 90}`,
			source: table.MustNew([]string{"Age"}, []table.Value{int64(5)}, []table.Value{int64(40)}, []table.Value{int64(95)}),
			want:   []table.Value{int64(18), int64(40), int64(90)},
		},
		{
			name: "join columns",
			rule: `
      source_attribute: First
      transform:
        - op: join
          columns: [Last]
          sep: " "`,
			source: table.MustNew([]string{"First", "Last"}, []table.Value{"Ada", "Lovelace"}, []table.Value{"Grace", nil}),
			want:   []table.Value{"Ada Lovelace", "Grace"},
		},
		{
			name: "lookup dict",
			rule: `
      source_attribute: Sex
      transform:
        - op: lookup
          dict:
            F: Female
            1: Male`,
			source: table.MustNew([]string{"Sex"}, []table.Value{"F"}, []table.Value{"1"}, []table.Value{int64(1)}, []table.Value{"x"}),
			want:   []table.Value{"Female", "Male", "Male", nil},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := mapping.Parse([]byte("T:\n  attributes:\n    - target_attribute: out" + tt.rule + "\n"))
			require.NoError(t, err)
			spec, err := doc.Load("T")
			require.NoError(t, err)

			rule, ok := spec.Rule("out")
			require.True(t, ok)
			require.Equal(t, mapping.Expression, rule.Kind)

			in, err := tt.source.Column(rule.Source)
			require.NoError(t, err)
			out, err := rule.Transform.Apply(in, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestParse_FixedValue(t *testing.T) {
	doc, err := mapping.Parse([]byte("T:\n  attributes:\n    - target_attribute: sex\n      fixed_value: Unknown\n"))
	require.NoError(t, err)
	spec, err := doc.Load("T")
	require.NoError(t, err)
	require.Len(t, spec.Rules, 1)
	assert.Equal(t, mapping.Fixed, spec.Rules[0].Kind)
	assert.Equal(t, "Unknown", spec.Rules[0].Value)
}
