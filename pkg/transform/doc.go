// Package transform implements the declarative column transform language
// used by mapping rules.
//
// A transform is an ordered list of steps. Each step names an operation
// from a closed registry and carries its parameters as plain data:
//
//	transform:
//	  - op: null_if
//	    values: [unknown, Not Applicable, Not Reported]
//	  - op: scale
//	    divisor: 365
//	  - to_int
//	  - op: clamp
//	    min: 18
//	    max: 90
//
// Steps are compiled once, when the mapping document is loaded, so an
// unknown operation or a bad parameter is reported before any data is
// touched. A compiled Pipeline runs over a whole source column at a time
// and may read other columns of the same row, but it never executes text
// supplied by the document.
package transform
