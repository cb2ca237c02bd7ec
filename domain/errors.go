// Package domain defines core types and errors shared by the query and
// styling layers.
package domain

import "fmt"

// ConfigurationError indicates missing or malformed configuration.
// It is fatal and never retried.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// ConnectionError indicates the store is unreachable or rejected the
// credentials. Fatal per call; no automatic retry is ever attempted.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string { return e.Message }
func (e *ConnectionError) Unwrap() error { return e.Err }

// DuplicateQueryError indicates a template name is already registered.
type DuplicateQueryError struct {
	Name string
}

func (e *DuplicateQueryError) Error() string {
	return fmt.Sprintf("query %q is already registered", e.Name)
}

// TemplateValidationError indicates a template's placeholders and its
// declared parameter schema disagree.
type TemplateValidationError struct {
	Name    string
	Message string
}

func (e *TemplateValidationError) Error() string {
	return fmt.Sprintf("template %q: %s", e.Name, e.Message)
}

// UnknownQueryError indicates a lookup for a name never registered.
type UnknownQueryError struct {
	Name string
}

func (e *UnknownQueryError) Error() string {
	return fmt.Sprintf("query %q not known", e.Name)
}

// ParameterValidationError indicates supplied parameters do not satisfy a
// template's parameter schema.
type ParameterValidationError struct {
	Query   string
	Param   string
	Message string
}

func (e *ParameterValidationError) Error() string {
	return fmt.Sprintf("query %q, parameter %q: %s", e.Query, e.Param, e.Message)
}

// SchemaMismatchError indicates column metadata and row shape disagree.
type SchemaMismatchError struct {
	Message string
}

func (e *SchemaMismatchError) Error() string { return e.Message }

// StyleConfigError indicates a malformed style configuration document.
type StyleConfigError struct {
	Profile string
	Message string
}

func (e *StyleConfigError) Error() string {
	if e.Profile == "" {
		return fmt.Sprintf("style config: %s", e.Message)
	}
	return fmt.Sprintf("style profile %q: %s", e.Profile, e.Message)
}

// UnknownProfileError indicates a style profile was never loaded.
type UnknownProfileError struct {
	Profile string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("style profile %q not loaded", e.Profile)
}

// UnsupportedChartKindError indicates an unrecognized chart kind.
type UnsupportedChartKindError struct {
	Kind string
}

func (e *UnsupportedChartKindError) Error() string {
	return fmt.Sprintf("chart kind %q not supported", e.Kind)
}

// EmptyDataError indicates a render was attempted over a zero-row table.
// Surfaced rather than producing a blank figure.
type EmptyDataError struct {
	Kind string
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("refusing to render %s chart: table has no rows", e.Kind)
}

// ErrConfiguration creates a ConfigurationError with a formatted message.
func ErrConfiguration(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConnection creates a ConnectionError wrapping the underlying cause.
func ErrConnection(err error, format string, args ...interface{}) *ConnectionError {
	return &ConnectionError{Message: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}

// ErrTemplateValidation creates a TemplateValidationError for the named template.
func ErrTemplateValidation(name, format string, args ...interface{}) *TemplateValidationError {
	return &TemplateValidationError{Name: name, Message: fmt.Sprintf(format, args...)}
}

// ErrParameterValidation creates a ParameterValidationError for one parameter.
func ErrParameterValidation(query, param, format string, args ...interface{}) *ParameterValidationError {
	return &ParameterValidationError{Query: query, Param: param, Message: fmt.Sprintf(format, args...)}
}

// ErrSchemaMismatch creates a SchemaMismatchError with a formatted message.
func ErrSchemaMismatch(format string, args ...interface{}) *SchemaMismatchError {
	return &SchemaMismatchError{Message: fmt.Sprintf(format, args...)}
}

// ErrStyleConfig creates a StyleConfigError scoped to a profile ("" for
// document-level problems).
func ErrStyleConfig(profile, format string, args ...interface{}) *StyleConfigError {
	return &StyleConfigError{Profile: profile, Message: fmt.Sprintf(format, args...)}
}
