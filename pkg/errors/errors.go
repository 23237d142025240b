// Package errors provides the error kinds of the cdsmap system.
// Every failure the mapping engine can raise has a sentinel that callers
// can test with errors.Is, and a typed error carrying the template and
// attribute names needed to attribute the failure.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Join is an alias for the standard library errors.Join.
var Join = errors.Join

// As is an alias for the standard library errors.As.
var As = errors.As

// Is is an alias for the standard library errors.Is.
var Is = errors.Is

// Sentinel errors for the mapping engine.
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSpecNotFound indicates that a template is absent from the mapping document
	ErrSpecNotFound = errors.New("mapping specification not found")

	// ErrMalformedRule indicates a contradictory or incomplete attribute rule
	ErrMalformedRule = errors.New("malformed rule")

	// ErrValueSetNotFound indicates that no value set is named after the attribute
	ErrValueSetNotFound = errors.New("value set not found")

	// ErrMissingSourceColumn indicates that a rule references an absent source column
	ErrMissingSourceColumn = errors.New("missing source column")

	// ErrExpression indicates that a transform failed or produced the wrong shape
	ErrExpression = errors.New("expression error")

	// ErrAmbiguousVocabularyTerm indicates a strict-mode lookup or vocabulary failure
	ErrAmbiguousVocabularyTerm = errors.New("ambiguous vocabulary term")
)

// SpecNotFoundError represents a template missing from the mapping document.
type SpecNotFoundError struct {
	Template  string
	Available []string
}

// Error implements the error interface
func (e *SpecNotFoundError) Error() string {
	if len(e.Available) > 0 {
		return fmt.Sprintf("mapping specification %q not found (available: %s)", e.Template, strings.Join(e.Available, ", "))
	}
	return fmt.Sprintf("mapping specification %q not found", e.Template)
}

// Is implements errors.Is support
func (e *SpecNotFoundError) Is(target error) bool {
	return target == ErrSpecNotFound || target == ErrNotFound
}

// NewSpecNotFoundError creates a new SpecNotFoundError
func NewSpecNotFoundError(template string, available []string) *SpecNotFoundError {
	return &SpecNotFoundError{Template: template, Available: available}
}

// MalformedRuleError represents a rule that cannot be interpreted.
type MalformedRuleError struct {
	Template  string
	Attribute string
	Index     int
	Message   string
	Err       error
}

// Error implements the error interface
func (e *MalformedRuleError) Error() string {
	where := fmt.Sprintf("rule %d", e.Index)
	switch {
	case e.Index < 0 && e.Attribute != "":
		where = fmt.Sprintf("rule for %s", e.Attribute)
	case e.Index < 0:
		where = "template"
	case e.Attribute != "":
		where = fmt.Sprintf("rule %d (%s)", e.Index, e.Attribute)
	}
	if e.Template != "" {
		return fmt.Sprintf("malformed %s in %q: %s", where, e.Template, e.Message)
	}
	return fmt.Sprintf("malformed %s: %s", where, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *MalformedRuleError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MalformedRuleError) Is(target error) bool {
	return target == ErrMalformedRule
}

// NewMalformedRuleError creates a new MalformedRuleError
func NewMalformedRuleError(template, attribute string, index int, message string) *MalformedRuleError {
	return &MalformedRuleError{
		Template:  template,
		Attribute: attribute,
		Index:     index,
		Message:   message,
	}
}

// ValueSetNotFoundError represents a missing value set in a value-set table.
type ValueSetNotFoundError struct {
	Attribute string
	Message   string
}

// Error implements the error interface
func (e *ValueSetNotFoundError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("value set %q not found: %s", e.Attribute, e.Message)
	}
	return fmt.Sprintf("value set %q not found", e.Attribute)
}

// Is implements errors.Is support
func (e *ValueSetNotFoundError) Is(target error) bool {
	return target == ErrValueSetNotFound || target == ErrNotFound
}

// NewValueSetNotFoundError creates a new ValueSetNotFoundError
func NewValueSetNotFoundError(attribute string) *ValueSetNotFoundError {
	return &ValueSetNotFoundError{Attribute: attribute}
}

// MissingColumnError represents a reference to a column a table does not have.
type MissingColumnError struct {
	Column string
}

// Error implements the error interface
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("source column %q not found", e.Column)
}

// Is implements errors.Is support
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingSourceColumn
}

// NewMissingColumnError creates a new MissingColumnError
func NewMissingColumnError(column string) *MissingColumnError {
	return &MissingColumnError{Column: column}
}

// ExpressionError represents a transform step that failed.
// Row is the zero-based source row, or -1 when the failure is not row specific.
type ExpressionError struct {
	Op      string
	Row     int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ExpressionError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("transform %s failed at row %d: %s", e.Op, e.Row, e.Message)
	}
	return fmt.Sprintf("transform %s failed: %s", e.Op, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ExpressionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ExpressionError) Is(target error) bool {
	return target == ErrExpression
}

// NewExpressionError creates a new ExpressionError
func NewExpressionError(op string, row int, message string, err error) *ExpressionError {
	return &ExpressionError{Op: op, Row: row, Message: message, Err: err}
}

// AmbiguousTermError represents a strict-mode vocabulary or dictionary failure.
type AmbiguousTermError struct {
	Value      string
	Candidates []string
	Message    string
}

// Error implements the error interface
func (e *AmbiguousTermError) Error() string {
	if len(e.Candidates) > 0 {
		return fmt.Sprintf("term %q is ambiguous between %s", e.Value, strings.Join(quoteAll(e.Candidates), ", "))
	}
	return fmt.Sprintf("term %q: %s", e.Value, e.Message)
}

// Is implements errors.Is support
func (e *AmbiguousTermError) Is(target error) bool {
	return target == ErrAmbiguousVocabularyTerm
}

// NewAmbiguousTermError creates a new AmbiguousTermError
func NewAmbiguousTermError(value string, candidates []string, message string) *AmbiguousTermError {
	return &AmbiguousTermError{Value: value, Candidates: candidates, Message: message}
}

// AttributeError attaches a target attribute name to a rule failure.
type AttributeError struct {
	Attribute string
	Err       error
}

// Error implements the error interface
func (e *AttributeError) Error() string {
	return fmt.Sprintf("attribute %q: %v", e.Attribute, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *AttributeError) Unwrap() error {
	return e.Err
}

// WrapAttribute wraps an error with the target attribute it was raised for
func WrapAttribute(attribute string, err error) error {
	if err == nil {
		return nil
	}
	return &AttributeError{Attribute: attribute, Err: err}
}

// TemplateError attaches a template name to a failure.
type TemplateError struct {
	Template string
	Err      error
}

// Error implements the error interface
func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Template, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TemplateError) Unwrap() error {
	return e.Err
}

// WrapTemplate wraps an error with the template it was raised for
func WrapTemplate(template string, err error) error {
	if err == nil {
		return nil
	}
	return &TemplateError{Template: template, Err: err}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "yaml", "json", "csv", "xlsx"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "load", "build", "write"
	Resource  string // "mapping", "vocabulary", "table", "config"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSpecNotFound checks if an error is a missing template error
func IsSpecNotFound(err error) bool {
	return errors.Is(err, ErrSpecNotFound)
}

// IsMalformedRule checks if an error is a malformed rule error
func IsMalformedRule(err error) bool {
	return errors.Is(err, ErrMalformedRule)
}

// IsMissingSourceColumn checks if an error is a missing column error
func IsMissingSourceColumn(err error) bool {
	return errors.Is(err, ErrMissingSourceColumn)
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsIOError checks if an error is a file system error
func IsIOError(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

// Kind returns the name of the mapping error kind carried by err,
// or "Error" when err carries none of them.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSpecNotFound):
		return "SpecNotFound"
	case errors.Is(err, ErrMalformedRule):
		return "MalformedRule"
	case errors.Is(err, ErrValueSetNotFound):
		return "ValueSetNotFound"
	case errors.Is(err, ErrMissingSourceColumn):
		return "MissingSourceColumn"
	case errors.Is(err, ErrExpression):
		return "ExpressionError"
	case errors.Is(err, ErrAmbiguousVocabularyTerm):
		return "AmbiguousVocabularyTerm"
	default:
		return "Error"
	}
}

// Attributes returns the target attribute names attached anywhere in err,
// including inside joined errors, in the order they were wrapped.
func Attributes(err error) []string {
	var names []string
	walk(err, func(e error) {
		if ae, ok := e.(*AttributeError); ok {
			names = append(names, ae.Attribute)
		}
	})
	return names
}

// Template returns the template name attached to err, if any.
func Template(err error) string {
	var te *TemplateError
	if errors.As(err, &te) {
		return te.Template
	}
	return ""
}

// walk visits err and every error reachable through Unwrap, including
// the multi-error form produced by errors.Join.
func walk(err error, visit func(error)) {
	if err == nil {
		return
	}
	visit(err)
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			walk(inner, visit)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), visit)
	}
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}
