// Package constants provides shared constants used throughout the cdsmap codebase.
// This includes file permissions, spreadsheet layout names, and the default
// attribute sets that the submission templates rely on.
package constants

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Value-set workbook layout
const (
	// ValueSetNameColumn is the column holding the value set name on its first row
	ValueSetNameColumn = "Value Set Name"

	// TermColumn is the column holding each accepted term
	TermColumn = "Term"

	// ValueSetSheet is the sheet of the CDS genomics template holding value sets
	ValueSetSheet = "Terms and Value Sets"

	// MetadataSheet is the sheet the CDS team expects the submission rows in
	MetadataSheet = "Metadata"
)

// Null handling
const (
	// NullSentinel is the canonical string form of a null cell. It cannot
	// collide with any string a spreadsheet or CSV file can carry.
	NullSentinel = "\x00<null>"
)

// Leading column
const (
	// AccessionColumn is the constant leading column of the genomics template
	AccessionColumn = "phs_accession"
)

// DefaultValueSetAttributes are the target attributes whose values are
// resolved against the published value sets unless a template says otherwise.
var DefaultValueSetAttributes = []string{
	"primary_diagnosis",
	"site_of_resection_or_biopsy",
	"tissue_or_organ_of_origin",
}

// Default paths
const (
	// DefaultConfigName is the base name of the CLI configuration file
	DefaultConfigName = ".cdsmap"

	// DefaultReleaseFile is the release configuration read by the assemble command
	DefaultReleaseFile = "release.yaml"

	// EnvPrefix prefixes every environment variable read through viper
	EnvPrefix = "CDSMAP"
)
