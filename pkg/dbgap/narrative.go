package dbgap

import (
	"fmt"
	"strings"

	"github.com/mc2-center/mc2-data-models/pkg/dedupe"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

// Summary holds the counts quoted in the release change log.
type Summary struct {
	DataType        string
	FileKind        string
	Files           int
	Participants    int
	NewParticipants int
	Centers         []string
}

// Summarize counts distinct files, the participants of this release and
// how many of them were not in the existing consent table. Center names
// lose their "HTAN " prefix and keep first-seen order.
func Summarize(files []table.Value, newSubjects, existing *table.Table, centers []string) (Summary, error) {
	var s Summary

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if table.IsNull(f) {
			continue
		}
		seen[table.Canonical(f)] = true
	}
	s.Files = len(seen)

	s.Participants = dedupe.Rows(newSubjects).Len()

	ids, err := newSubjects.Distinct(SubjectID)
	if err != nil {
		return Summary{}, err
	}
	overlap := 0
	if existing != nil {
		known, err := existing.Distinct(SubjectID)
		if err != nil {
			return Summary{}, err
		}
		knownSet := make(map[string]bool, len(known))
		for _, id := range known {
			knownSet[id] = true
		}
		for _, id := range ids {
			if knownSet[id] {
				overlap++
			}
		}
	}
	s.NewParticipants = s.Participants - overlap

	for _, c := range centers {
		s.Centers = append(s.Centers, strings.TrimPrefix(c, "HTAN "))
	}
	return s, nil
}

// Updates returns the one-line change log entry.
func (s Summary) Updates() string {
	return fmt.Sprintf("New Updates: %d files from %d patient cases (%d new) were added to the bucket",
		s.Files, s.Participants, s.NewParticipants)
}

// Narrative returns the release narrative paragraph.
func (s Summary) Narrative() string {
	dataType := s.DataType
	if dataType == "" {
		dataType = "genomics"
	}
	fileKind := s.FileKind
	if fileKind == "" {
		fileKind = "sequencing"
	}
	return fmt.Sprintf("This transfer contains %s data submitted by %s HTAN centers. "+
		"%d level 1 & 2 %s files were added from %d patient cases (%d new) participants",
		dataType, strings.Join(s.Centers, ", "), s.Files, fileKind, s.Participants, s.NewParticipants)
}

// String renders the full change log block.
func (s Summary) String() string {
	var b strings.Builder
	b.WriteString(s.Updates())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Data was submitted by %s HTAN centers\n\n", strings.Join(s.Centers, ", "))
	b.WriteString("Narrative: ")
	b.WriteString(s.Narrative())
	b.WriteString("\n")
	return b.String()
}
