// Package dbgap builds the Subject Sample Mapping and Subject Consent
// tables submitted to dbGaP alongside each release, and the change-log
// narrative that accompanies them.
package dbgap

import (
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/dedupe"
	"github.com/mc2-center/mc2-data-models/pkg/enrich"
	"github.com/mc2-center/mc2-data-models/pkg/table"
	"github.com/mc2-center/mc2-data-models/pkg/transform"
)

// dbGaP column names
const (
	SubjectID   = "SUBJECT_ID"
	SampleID    = "SAMPLE_ID"
	CDSSampleID = "CDS_SAMPLE_ID"
	Consent     = "CONSENT"
	Sex         = "SEX"
)

// Columns holds the source column names the dbGaP tables are built from.
type Columns struct {
	Participant string
	Biospecimen string
	Gender      string
	Center      string
}

// DefaultColumns are the merged HTAN metadata column names.
var DefaultColumns = Columns{
	Participant: "HTAN_Participant_ID",
	Biospecimen: "HTAN_Biospecimen_ID",
	Gender:      "Gender",
	Center:      "HTAN_Center",
}

// SubjectSampleMapping returns existing followed by the subject/sample
// pairs of merged, keeping the first row for each SAMPLE_ID. existing may
// be nil. When biospecimens is not nil it is joined on the biospecimen
// column to add its remaining columns, such as CDS_SAMPLE_ID.
func SubjectSampleMapping(existing, merged, biospecimens *table.Table, cols Columns) (*table.Table, error) {
	pairs, err := merged.Select(cols.Participant, cols.Biospecimen)
	if err != nil {
		return nil, err
	}
	pairs = dedupe.Rows(pairs)

	if biospecimens != nil {
		if pairs, err = pairs.LeftJoin(biospecimens, cols.Biospecimen, cols.Biospecimen); err != nil {
			return nil, err
		}
	}

	pairs, err = pairs.Rename(map[string]string{
		cols.Participant: SubjectID,
		cols.Biospecimen: SampleID,
	})
	if err != nil {
		return nil, err
	}
	return dedupe.By(table.Concat(existing, pairs), []string{SampleID}, dedupe.KeepFirst)
}

// NewSubjects returns the distinct subjects of merged with their sex and
// the consent code of their center, in SUBJECT_ID, SEX, CONSENT order.
func NewSubjects(merged *table.Table, centers enrich.Centers, cols Columns) (*table.Table, error) {
	subjects, err := merged.Select(cols.Participant, cols.Gender)
	if err != nil {
		return nil, err
	}
	subjects, err = subjects.Rename(map[string]string{
		cols.Participant: SubjectID,
		cols.Gender:      Sex,
	})
	if err != nil {
		return nil, err
	}
	subjects = dedupe.Rows(subjects)
	return centers.AddFields(subjects, SubjectID, enrich.FieldConsent)
}

// SubjectConsent returns the consent table to submit: the new subjects
// followed by existing, with SEX normalized and columns in the order the
// dbGaP pipelines require.
func SubjectConsent(newSubjects, existing *table.Table) (*table.Table, error) {
	fresh, err := newSubjects.Rename(map[string]string{enrich.FieldConsent: Consent})
	if err != nil {
		return nil, err
	}
	all := table.Concat(fresh, existing)

	sex, err := all.Column(Sex)
	if err != nil {
		return nil, err
	}
	for i, v := range sex {
		sex[i] = NormalizeSex(v)
	}
	if all, err = all.WithColumn(Sex, sex); err != nil {
		return nil, err
	}

	out, err := all.Select(SubjectID, Consent, Sex)
	if err != nil {
		return nil, err
	}
	return dedupe.Rows(out), nil
}

// NormalizeSex maps a reported sex to the dbGaP form: "Not Reported" and
// null become "Unknown" and everything else is capitalized.
func NormalizeSex(v table.Value) table.Value {
	if table.IsNull(v) {
		return "Unknown"
	}
	s := strings.ReplaceAll(table.Format(v), "Not Reported", "Unknown")
	return transform.Capitalize(s)
}
