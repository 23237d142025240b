package assemble_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mc2-center/mc2-data-models/pkg/assemble"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/logging"
	"github.com/mc2-center/mc2-data-models/pkg/mapping"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

const doc = `
CDS Imaging Participant Information:
  attributes:
    - target_attribute: participant_id
      source_attribute: HTAN Participant ID
      transform: []
    - target_attribute: gender
      source_attribute: Gender
      dict: {female: Female, male: Male}
CDS Imaging File Specific General Information:
  attributes:
    - target_attribute: phs_accession
    - target_attribute: file_name
      source_attribute: Filename
      transform: [trim]
CDS Broken:
  attributes:
    - target_attribute: x
      source_attribute: missing_col
      transform: [trim]
`

func loadDoc(t *testing.T) *mapping.Document {
	t.Helper()
	d, err := mapping.Parse([]byte(doc))
	require.NoError(t, err)
	return d
}

func source() *table.Table {
	return table.MustNew([]string{"HTAN_Participant_ID", "Gender", "Filename"},
		[]table.Value{"HTA1_1", "female", "a.tif"},
		[]table.Value{"HTA1_1", "female", "b.tif"},
		[]table.Value{"HTA1_2", "male", "c.tif "},
	)
}

func requests() []assemble.Request {
	src := source()
	return []assemble.Request{
		{Template: "CDS Imaging Participant Information", Source: src},
		{Template: "CDS Broken", Source: src},
		{Template: "CDS Imaging File Specific General Information", Source: src, LeadingColumn: "phs_accession", LeadingValue: "phs002371"},
		{Template: "CDS Unknown", Source: src},
	}
}

func TestAssembleContinuesOnFailure(t *testing.T) {
	for _, parallelism := range []int{1, 3} {
		a := assemble.New(loadDoc(t), nil, assemble.WithParallelism(parallelism))
		res, err := a.Assemble(requests())
		require.Error(t, err)
		require.NotNil(t, res)

		_, parseErr := uuid.Parse(res.RunID)
		assert.NoError(t, parseErr)

		assert.Equal(t, []string{
			"CDS Imaging Participant Information",
			"CDS Imaging File Specific General Information",
		}, res.Order)
		require.Len(t, res.Reports, 4)

		participants, ok := res.Table("CDS Imaging Participant Information")
		require.True(t, ok)
		assert.Equal(t, 2, participants.Len())
		assert.Equal(t, 1, res.Reports[0].DuplicatesRemoved)
		assert.Equal(t, 3, res.Reports[0].SourceRows)
		assert.Equal(t, 2, res.Reports[0].Columns)

		files, _ := res.Table("CDS Imaging File Specific General Information")
		assert.Equal(t, []string{"phs_accession", "file_name"}, files.Columns())
		assert.Equal(t, "c.tif", files.Value(2, "file_name"))

		broken := res.Reports[1]
		assert.False(t, broken.OK())
		assert.Equal(t, "MissingSourceColumn", broken.Kind())
		assert.Equal(t, []string{"x"}, broken.Attributes())
		assert.Equal(t, "CDS Broken", errors.Template(broken.Err))

		assert.Equal(t, "SpecNotFound", res.Reports[3].Kind())
		assert.Len(t, res.Failed(), 2)
		_, ok = res.Table("CDS Broken")
		assert.False(t, ok)
	}
}

func TestAssembleFailFast(t *testing.T) {
	a := assemble.New(loadDoc(t), nil, assemble.WithFailFast(true))
	res, err := a.Assemble(requests())
	require.Error(t, err)
	assert.True(t, errors.IsMissingSourceColumn(err))
	require.Len(t, res.Reports, 2)
	assert.Equal(t, []string{"CDS Imaging Participant Information"}, res.Order)
}

func TestAssembleHooks(t *testing.T) {
	var mu sync.Mutex
	var assembled, failed []string

	a := assemble.New(loadDoc(t), nil, assemble.WithParallelism(2))
	a.OnTableAssembled(func(template string, tbl *table.Table, report assemble.Report) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, report.Rows, tbl.Len())
		assembled = append(assembled, template)
	})
	a.OnTemplateFailed(func(report assemble.Report) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, report.Template)
	})

	_, err := a.Assemble(requests())
	require.Error(t, err)
	assert.Equal(t, []string{"CDS Imaging Participant Information", "CDS Imaging File Specific General Information"}, assembled)
	assert.Equal(t, []string{"CDS Broken", "CDS Unknown"}, failed)
}

func TestAssembleRejectsDuplicateAndMissingSource(t *testing.T) {
	a := assemble.New(loadDoc(t), nil)
	res, err := a.Assemble([]assemble.Request{
		{Template: "CDS Imaging Participant Information", Source: source()},
		{Template: "CDS Imaging Participant Information", Source: source()},
		{Template: "CDS Imaging File Specific General Information"},
	})
	require.Error(t, err)
	require.Len(t, res.Reports, 3)
	assert.True(t, res.Reports[0].OK())
	assert.True(t, errors.IsValidationError(res.Reports[1].Err))
	assert.True(t, errors.IsValidationError(res.Reports[2].Err))
}

func TestAssembleSuccess(t *testing.T) {
	tl := logging.NewTestLogger(t)
	a := assemble.New(loadDoc(t), nil, assemble.WithLogger(*tl.Logger))
	res, err := a.Assemble(requests()[:1])
	require.NoError(t, err)
	assert.NoError(t, res.Err())
	assert.Empty(t, res.Failed())
	tl.AssertContains(t, "Table assembled")
	tl.AssertContains(t, res.RunID)
}
