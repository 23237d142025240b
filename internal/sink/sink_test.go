package sink_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mc2-center/mc2-data-models/internal/sink"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

func sample() *table.Table {
	return table.MustNew([]string{"phs_accession", "sample_id", "age", "sex"},
		[]table.Value{"phs002371", "HTA1_1_1", 34, "Female"},
		[]table.Value{"phs002371", "HTA1_1_2", nil, "Unknown, \"quoted\""},
	)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "CDS_Genomics_mc2_batch_2.csv", sink.FileName("CDS Genomics", "mc2_batch_2", sink.FormatCSV))
	assert.Equal(t, "CDS_Imaging_Participant_Information_p1.xlsx",
		sink.FileName("CDS Imaging Participant Information", "p1", sink.FormatXLSX))
	assert.Equal(t, "subject_consent.yaml", sink.FileName("subject_consent", "", sink.FormatYAML))
}

func TestParseFormats(t *testing.T) {
	got, err := sink.ParseFormats([]string{"csv", "XLSX", "yml", "csv"})
	require.NoError(t, err)
	assert.Equal(t, []sink.Format{sink.FormatCSV, sink.FormatXLSX, sink.FormatYAML}, got)

	_, err = sink.ParseFormats([]string{"parquet"})
	assert.True(t, errors.IsValidationError(err))

	assert.False(t, sink.Format(99).IsValid())
	assert.Equal(t, "unknown", sink.Format(99).String())
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sink.Write(&buf, sample(), sink.FormatCSV))

	want := "phs_accession,sample_id,age,sex\n" +
		"phs002371,HTA1_1_1,34,Female\n" +
		"phs002371,HTA1_1_2,,\"Unknown, \"\"quoted\"\"\"\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sink.Write(&buf, sample(), sink.FormatJSON))

	out := buf.String()
	assert.Contains(t, out, `"age": 34`)
	assert.Contains(t, out, `"age": null`)
	assert.Less(t, strings.Index(out, "phs_accession"), strings.Index(out, "sample_id"), "keys keep column order")
	assert.Less(t, strings.Index(out, "sample_id"), strings.Index(out, `"age"`))
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sink.Write(&buf, sample(), sink.FormatYAML))

	var got []yaml.MapSlice
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "phs_accession", got[0][0].Key)
	assert.Equal(t, "sex", got[0][3].Key)
	assert.Nil(t, got[1][2].Value)
}

func TestSave_CSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := sink.Save("CDS Genomics", sample(), sink.WithDir(dir), sink.WithPackageID("b2"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "CDS_Genomics_b2.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "phs_accession,sample_id,age,sex\n"))
}

func TestSave_Writer(t *testing.T) {
	var buf bytes.Buffer
	path, err := sink.Save("CDS Genomics", sample(), sink.WithWriter(&buf), sink.WithFormat(sink.FormatYAML))
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Contains(t, buf.String(), "sample_id: HTA1_1_1")
}

func TestSave_XLSXBlank(t *testing.T) {
	path, err := sink.Save("CDS Genomics", sample(), sink.WithDir(t.TempDir()), sink.WithFormat(sink.FormatXLSX))
	require.NoError(t, err)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	assert.Equal(t, []string{"Metadata"}, wb.GetSheetList())
	rows, err := wb.GetRows("Metadata")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"phs_accession", "sample_id", "age", "sex"}, rows[0])
	assert.Equal(t, "34", rows[1][2])
	assert.Equal(t, "", rows[2][2])
}

func TestSave_XLSXTemplateWorkbook(t *testing.T) {
	tmpl := filepath.Join(t.TempDir(), "template.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Metadata"))
	require.NoError(t, f.SetCellValue("Metadata", "A1", "stale"))
	require.NoError(t, f.SetCellValue("Metadata", "A5", "stale row"))
	_, err := f.NewSheet("Terms and Value Sets")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Terms and Value Sets", "A1", "Value Set Name"))
	require.NoError(t, f.SaveAs(tmpl))
	require.NoError(t, f.Close())

	path, err := sink.Save("CDS Genomics", sample(),
		sink.WithDir(t.TempDir()),
		sink.WithFormat(sink.FormatXLSX),
		sink.WithWorkbook(tmpl),
	)
	require.NoError(t, err)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	assert.ElementsMatch(t, []string{"Metadata", "Terms and Value Sets"}, wb.GetSheetList())
	rows, err := wb.GetRows("Metadata")
	require.NoError(t, err)
	require.Len(t, rows, 3, "stale rows are removed")
	assert.Equal(t, "phs_accession", rows[0][0])

	kept, err := wb.GetCellValue("Terms and Value Sets", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Value Set Name", kept)
}

func TestSave_MissingWorkbook(t *testing.T) {
	_, err := sink.Save("CDS Genomics", sample(),
		sink.WithDir(t.TempDir()),
		sink.WithFormat(sink.FormatXLSX),
		sink.WithWorkbook(filepath.Join(t.TempDir(), "nope.xlsx")),
	)
	assert.True(t, errors.IsIOError(err))
}

func TestSave_InvalidFormat(t *testing.T) {
	_, err := sink.Save("x", sample(), sink.WithFormat(sink.Format(42)))
	assert.True(t, errors.IsValidationError(err))
}
