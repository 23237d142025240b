package transform_test

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

func compile(t *testing.T, steps ...transform.Definition) *transform.Pipeline {
	t.Helper()
	p, err := transform.Compile(steps)
	require.NoError(t, err)
	return p
}

func col(values ...table.Value) []table.Value {
	return values
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		def  transform.Definition
		want string
	}{
		{"missing op", transform.Definition{"sep": ","}, "missing op"},
		{"unknown op", transform.Definition{"op": "eval"}, `unknown op "eval"`},
		{"unknown parameter", transform.Definition{"op": "trim", "width": 3}, "unknown parameters"},
		{"scale needs one factor", transform.Definition{"op": "scale"}, "exactly one"},
		{"scale both", transform.Definition{"op": "scale", "factor": 2, "divisor": 3}, "exactly one"},
		{"zero divisor", transform.Definition{"op": "scale", "divisor": 0}, "zero"},
		{"clamp inverted", transform.Definition{"op": "clamp", "min": 90, "max": 18}, "greater than"},
		{"bad regex", transform.Definition{"op": "regex_replace", "pattern": "("}, "invalid pattern"},
		{"bad case mode", transform.Definition{"op": "case", "mode": "sarcastic"}, "mode must be"},
		{"lookup without dict", transform.Definition{"op": "lookup"}, "dict"},
		{"bucket case without bound", transform.Definition{"op": "bucket", "cases": []any{map[string]any{"value": 1}}}, "at least one"},
		{"bad on_invalid", transform.Definition{"op": "to_int", "on_invalid": "explode"}, "on_invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transform.Compile([]transform.Definition{tt.def})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode(t *testing.T) {
	defs, err := transform.Decode([]any{
		"to_int",
		map[string]any{"op": "clamp", "min": 18},
	})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "to_int", defs[0].Op())
	assert.Equal(t, "clamp", defs[1].Op())

	single, err := transform.Decode(map[string]any{"op": "trim"})
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = transform.Decode([]any{42})
	assert.Error(t, err)

	none, err := transform.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDecode_NestedParameters(t *testing.T) {
	var raw any
	require.NoError(t, yaml.Unmarshal([]byte(`
- op: null_if
  values: [unknown, 7]
- op: bucket
  cases:
    - {lt: 18, value: 18}
- op: lookup
  dict: {18: Minor, f: Female}
`), &raw))

	defs, err := transform.Decode(raw)
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, []any{"unknown", int64(7)}, defs[0]["values"])
	assert.Equal(t, []any{map[string]any{"lt": int64(18), "value": int64(18)}}, defs[1]["cases"])
	assert.Equal(t, map[string]any{"18": "Minor", "f": "Female"}, defs[2]["dict"])

	p, err := transform.Compile(defs)
	require.NoError(t, err)
	out, err := p.Apply(col("unknown", "7", "3"), nil)
	require.NoError(t, err)
	assert.Equal(t, col(nil, nil, "Minor"), out)
}

func TestAgeConversion(t *testing.T) {
	p := compile(t,
		transform.Definition{"op": "null_if", "values": []any{"unknown", "Not Applicable", "Not Reported"}},
		transform.Definition{"op": "scale", "divisor": 365},
		transform.Definition{"op": "to_int"},
		transform.Definition{"op": "clamp", "min": 18, "max": 90},
	)
	assert.Equal(t, []string{"null_if", "scale", "to_int", "clamp"}, p.Ops())

	in := col("3650", "unknown", nil, "20075", "36500", int64(25000))
	out, err := p.Apply(in, nil)
	require.NoError(t, err)
	assert.Equal(t, col(int64(18), nil, nil, int64(55), int64(90), int64(68)), out)
	assert.Equal(t, "3650", in[0], "input must not be modified")
}

func TestScaleInvalid(t *testing.T) {
	strict := compile(t, transform.Definition{"op": "scale", "factor": 2})
	_, err := strict.Apply(col("1", "abc"), nil)
	require.Error(t, err)
	var ee *errors.ExpressionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "scale", ee.Op)
	assert.Equal(t, 1, ee.Row)
	assert.Equal(t, "ExpressionError", errors.Kind(err))

	lenient := compile(t, transform.Definition{"op": "scale", "factor": 2, "on_invalid": "keep"})
	out, err := lenient.Apply(col("1.5", "abc"), nil)
	require.NoError(t, err)
	assert.Equal(t, col(3.0, "abc"), out)
}

func TestBucket(t *testing.T) {
	p := compile(t, transform.Definition{
		"op": "bucket",
		"cases": []any{
			map[string]any{"lt": 18, "value": 18},
			map[string]any{"gt": 89, "value": 90},
		},
	})
	out, err := p.Apply(col(int64(5), int64(40), int64(95)), nil)
	require.NoError(t, err)
	assert.Equal(t, col(int64(18), int64(40), int64(90)), out)

	withDefault := compile(t, transform.Definition{
		"op":      "bucket",
		"cases":   []any{map[string]any{"ge": 0, "lt": 1, "value": "low"}},
		"default": "high",
	})
	out, err = withDefault.Apply(col(0.5, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, col("low", "high"), out)
}

func TestLookup(t *testing.T) {
	p := compile(t, transform.Definition{
		"op":   "lookup",
		"dict": map[any]any{"female": "Female", 1: "one"},
	})
	out, err := p.Apply(col("female", int64(1), "other", nil), nil)
	require.NoError(t, err)
	assert.Equal(t, col("Female", "one", nil, nil), out)

	keep := compile(t, transform.Definition{"op": "lookup", "dict": map[string]any{"a": "A"}, "keep_unmatched": true})
	out, err = keep.Apply(col("a", "b"), nil)
	require.NoError(t, err)
	assert.Equal(t, col("A", "b"), out)
}

func TestStringOps(t *testing.T) {
	src := table.MustNew([]string{"Filename", "HTAN_Center"},
		[]table.Value{"a b.fastq", "HTAN HTAPP"},
		[]table.Value{"c.fastq", nil},
	)

	tests := []struct {
		name string
		def  transform.Definition
		in   []table.Value
		want []table.Value
	}{
		{"split index", transform.Definition{"op": "split", "sep": "/", "index": 2}, col("s3://bucket/x", "short"), col("bucket", nil)},
		{"split negative", transform.Definition{"op": "split", "sep": "_", "index": -1}, col("HTA1_1_2"), col("2")},
		{"replace", transform.Definition{"op": "replace", "old": " NOS", "new": ", NOS"}, col("Adenocarcinoma NOS", int64(3)), col("Adenocarcinoma, NOS", int64(3))},
		{"regex", transform.Definition{"op": "regex_replace", "pattern": `\s+`, "replacement": ""}, col("a b  c"), col("abc")},
		{"join", transform.Definition{"op": "join", "columns": []any{"HTAN_Center"}, "sep": "|"}, col("x", nil), col("x|HTAN HTAPP", nil)},
		{"template", transform.Definition{"op": "template", "format": "{value}/{Filename}"}, col("v1", "v2"), col("v1/a b.fastq", "v2/c.fastq")},
		{"null_if blank", transform.Definition{"op": "null_if", "blank": true}, col(" ", "x"), col(nil, "x")},
		{"fill_null", transform.Definition{"op": "fill_null", "value": "Not Reported"}, col(nil, "x"), col("Not Reported", "x")},
		{"upper", transform.Definition{"op": "case", "mode": "upper"}, col("dna"), col("DNA")},
		{"capitalize", transform.Definition{"op": "case", "mode": "capitalize"}, col("not reported", "FEMALE"), col("Not reported", "Female")},
		{"title", transform.Definition{"op": "case", "mode": "title"}, col("not reported"), col("Not Reported")},
		{"trim", transform.Definition{"op": "trim"}, col("  x  "), col("x")},
		{"trim chars", transform.Definition{"op": "trim", "chars": ",;"}, col(";x,"), col("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := compile(t, tt.def).Apply(tt.in, src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestMissingReferencedColumn(t *testing.T) {
	src := table.MustNew([]string{"a"}, []table.Value{"x"})

	for _, def := range []transform.Definition{
		{"op": "join", "columns": []any{"missing_col"}},
		{"op": "template", "format": "{missing_col}"},
		{"op": "unit_filter", "unit_column": "missing_col"},
	} {
		_, err := compile(t, def).Apply(col("x"), src)
		require.Error(t, err, def.Op())
		assert.True(t, errors.IsMissingSourceColumn(err), def.Op())
		assert.ErrorIs(t, err, errors.ErrExpression, def.Op())
	}
}

func TestUnitFilter(t *testing.T) {
	src := table.MustNew([]string{"PhysicalSizeX", "PhysicalSizeXUnit"},
		[]table.Value{0.65, "µm"},
		[]table.Value{0.5, "nm"},
		[]table.Value{0.3, "Âµm"},
		[]table.Value{0.2, nil},
	)
	values, err := src.Column("PhysicalSizeX")
	require.NoError(t, err)

	out, err := compile(t, transform.Definition{"op": "unit_filter", "unit_column": "PhysicalSizeXUnit"}).Apply(values, src)
	require.NoError(t, err)
	assert.Equal(t, col(0.65, nil, 0.3, nil), out)
}

func TestRegistry(t *testing.T) {
	r := transform.NewRegistry()
	assert.False(t, r.Has("double"))

	r.Register("double", func(transform.Args) (transform.Func, error) {
		return func(c []table.Value, _ *table.Table) ([]table.Value, error) {
			return append(c, c...), nil
		}, nil
	})
	assert.Equal(t, []string{"double"}, r.Names())

	p, err := r.Compile([]transform.Definition{{"op": "double"}})
	require.NoError(t, err)
	_, err = p.Apply(col("a"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced 2 values for 1 rows")

	assert.Contains(t, transform.Default().Names(), "unit_filter")
	assert.Len(t, transform.Default().Names(), 15)
}

func TestNilPipeline(t *testing.T) {
	var p *transform.Pipeline
	out, err := p.Apply(col("a"), nil)
	require.NoError(t, err)
	assert.Equal(t, col("a"), out)
	assert.Equal(t, 0, p.Len())
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", transform.Capitalize(""))
	assert.Equal(t, "Éclair", transform.Capitalize("éCLAIR"))
}
