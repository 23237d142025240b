// Package mapping loads per-template mapping specifications.
//
// A mapping document is a YAML mapping keyed by template name. Each
// template lists its attribute rules in output column order:
//
//	CDS Genomics:
//	  value_set_attributes: [primary_diagnosis]
//	  attributes:
//	    - target_attribute: phs_accession
//	    - target_attribute: sex
//	      source_attribute: Gender
//	      dict: {female: Female, male: Male}
//	    - target_attribute: primary_diagnosis
//	      source_attribute: Primary Diagnosis
//	      transform: [trim]
//	    - target_attribute: library_source
//	      fixed_value: Genomic
//
// A rule with fixed_value is Fixed, a rule with dict is a DictLookup, a
// rule with only a transform is an Expression, and a rule with none of
// them is Unmapped. Transforms are compiled when a template is loaded.
package mapping
