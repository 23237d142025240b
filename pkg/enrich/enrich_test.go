package enrich_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mc2-center/mc2-data-models/pkg/dedupe"
	"github.com/mc2-center/mc2-data-models/pkg/enrich"
	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/logging"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

const centersJSON = `{
  "HTA1": {"pi_first": "Ana", "pi_last": "Lee", "pi_email": "ana@example.org", "bucket": "s3://htan-dcc-htapp/", "consent": "1"},
  "HTA9": {"pi_first": "Bo", "pi_last": "Kim", "pi_email": "bo@example.org", "bucket": "gs://htan-dcc-ohsu/", "consent": "2"}
}`

func TestLoadCenters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "centers.json")
	require.NoError(t, os.WriteFile(path, []byte(centersJSON), 0o644))

	centers, err := enrich.LoadCenters(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"HTA1", "HTA9"}, centers.Prefixes())

	c, err := centers.Lookup("HTA9_1_2")
	require.NoError(t, err)
	assert.Equal(t, "Kim", c.PILast)

	_, err = centers.Lookup("HTA5_1")
	assert.True(t, errors.IsNotFound(err))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = enrich.LoadCenters(bad)
	var pe *errors.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "HTA1", enrich.Prefix("HTA1_2_3"))
	assert.Equal(t, "HTA1", enrich.Prefix("HTA1"))
}

func TestAddFields(t *testing.T) {
	centers, err := enrich.ParseCenters([]byte(centersJSON))
	require.NoError(t, err)

	src := table.MustNew([]string{"HTAN_Data_File_ID"},
		[]table.Value{"HTA1_1_1"}, []table.Value{nil}, []table.Value{"HTA9_4_4"})
	out, err := centers.AddFields(src, "HTAN_Data_File_ID", enrich.FieldPIFirst, enrich.FieldConsent)
	require.NoError(t, err)
	assert.Equal(t, []string{"HTAN_Data_File_ID", "pi_first", "consent"}, out.Columns())
	assert.Equal(t, "Ana", out.Value(0, "pi_first"))
	assert.Nil(t, out.Value(1, "pi_first"))
	assert.Equal(t, "2", out.Value(2, "consent"))

	_, err = centers.AddFields(src, "HTAN_Data_File_ID", "pi_middle")
	assert.True(t, errors.IsValidationError(err))

	unknown := table.MustNew([]string{"id"}, []table.Value{"HTA7_1"})
	_, err = centers.AddFields(unknown, "id", enrich.FieldPIFirst)
	assert.True(t, errors.IsNotFound(err))
}

func TestApplySteps(t *testing.T) {
	centers, err := enrich.ParseCenters([]byte(centersJSON))
	require.NoError(t, err)

	bucketName, err := transform.Compile([]transform.Definition{{"op": "split", "sep": "/", "index": 2}})
	require.NoError(t, err)
	fileURL, err := transform.Compile([]transform.Definition{
		{"op": "regex_replace", "pattern": `\s`, "replacement": ""},
		{"op": "template", "format": "s3://cds-243-phs002371/{transfer_id}/{bucket_name}/{value}"},
	})
	require.NoError(t, err)

	files := table.MustNew([]string{"entityId", "HTAN_Participant_ID", "HTAN_Parent_Biospecimen_ID", "Filename"},
		[]table.Value{"syn1", "HTA1_1", "HTA1_1_1,HTA1_1_2", "a b.tif"},
		[]table.Value{"syn1", "HTA1_1", "HTA1_1_1,HTA1_1_2", "a b.tif"},
	)
	clinical := table.MustNew([]string{"HTAN_Biospecimen_ID", "Gender"},
		[]table.Value{"HTA1_1_1", "female"},
	)

	tl := logging.NewTestLogger(t)
	out, err := enrich.Apply(files, *tl.Logger,
		enrich.Dedupe{},
		enrich.Explode{Column: "HTAN_Parent_Biospecimen_ID"},
		enrich.Join{Right: clinical, LeftKey: "HTAN_Parent_Biospecimen_ID", RightKey: "HTAN_Biospecimen_ID"},
		enrich.Dedupe{Columns: []string{"entityId"}, Keep: dedupe.KeepLast},
		enrich.CenterFields{Centers: centers, IDColumn: "HTAN_Participant_ID", Fields: []string{"bucket"}},
		enrich.Constant{Column: "transfer_id", Value: "v24.4.1.seq"},
		enrich.Derive{Column: "bucket_name", Source: "bucket", Transform: bucketName},
		enrich.Derive{Column: "file_url_in_cds", Source: "Filename", Transform: fileURL},
	)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "HTA1_1_2", out.Value(0, "HTAN_Parent_Biospecimen_ID"))
	assert.Nil(t, out.Value(0, "Gender"), "keep last picks the second exploded row")
	assert.Equal(t, "s3://cds-243-phs002371/v24.4.1.seq/htan-dcc-htapp/ab.tif", out.Value(0, "file_url_in_cds"))
	tl.AssertContains(t, "Enrichment step applied")

	_, err = enrich.Apply(files, logging.Nop, enrich.Explode{Column: "nope"})
	require.Error(t, err)
	assert.True(t, errors.IsMissingSourceColumn(err))
	assert.Contains(t, err.Error(), "explode")
}
