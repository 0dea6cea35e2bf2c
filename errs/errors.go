// Package errs defines the error kinds surfaced by the store, reasoner,
// materializer and event pipeline (see spec §7 Error Handling Design).
package errs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies an error raised by the engine.
type Kind string

const (
	KindStorageUnavailable  Kind = "StorageUnavailable"
	KindParseError          Kind = "ParseError"
	KindValidationError     Kind = "ValidationError"
	KindInconsistentOntology Kind = "InconsistentOntology"
	KindProfileViolation    Kind = "ProfileViolation"
	KindQueryInvalid        Kind = "QueryInvalid"
	KindTimeout             Kind = "Timeout"
	KindInternalError       Kind = "InternalError"
)

// Span locates a parse error within its source text.
type Span struct {
	Line   int
	Column int
	Offset int
}

func (s Span) String() string {
	if s.Line == 0 && s.Column == 0 {
		return ""
	}
	return fmt.Sprintf("line %d, column %d", s.Line, s.Column)
}

// Error is the engine's uniform error type: every error carries a short kind
// tag and a human-readable message, per spec §7.
type Error struct {
	Kind    Kind
	Message string
	Span    *Span
	Cause   error
}

func (e *Error) Error() string {
	if e.Span != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Span.String())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around a lower-level cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithSpan attaches a source span to a ParseError or QueryInvalid error.
func (e *Error) WithSpan(span Span) *Error {
	e.Span = &span
	return e
}

// StorageUnavailable reports that a store path is inaccessible or a backend
// call failed.
func StorageUnavailable(format string, args ...any) *Error {
	return New(KindStorageUnavailable, format, args...)
}

// ParseError reports a syntactic failure in ingress RDF or SPARQL text.
func ParseError(format string, args ...any) *Error {
	return New(KindParseError, format, args...)
}

// QueryInvalid reports a SPARQL parse or static analysis failure.
func QueryInvalid(format string, args ...any) *Error {
	return New(KindQueryInvalid, format, args...)
}

// Timeout reports that a deadline expired during reasoning, materialization
// or query evaluation.
func Timeout(format string, args ...any) *Error {
	return New(KindTimeout, format, args...)
}

// InternalError reports an invariant breach.
func InternalError(format string, args ...any) *Error {
	return New(KindInternalError, format, args...)
}

// InconsistentOntology reports that a consistency check failed.
func InconsistentOntology(format string, args ...any) *Error {
	return New(KindInconsistentOntology, format, args...)
}

// ProfileViolation reports that an axiom falls outside a requested OWL 2 profile.
func ProfileViolation(format string, args ...any) *Error {
	return New(KindProfileViolation, format, args...)
}

// ValidationResult accumulates validation errors and warnings across the
// structural, semantic and business validation layers of the event pipeline.
// Errors abort acceptance of the event; warnings are informational and are
// returned alongside a successful validation.
type ValidationResult struct {
	Errors   *multierror.Error
	Warnings []string
}

// NewValidationResult creates an empty validation result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{}
}

// AddError appends an error message that must block acceptance of the event.
func (v *ValidationResult) AddError(format string, args ...any) {
	v.Errors = multierror.Append(v.Errors, fmt.Errorf(format, args...))
}

// AddWarning appends a message describing suspicious but acceptable input.
func (v *ValidationResult) AddWarning(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any blocking error was accumulated.
func (v *ValidationResult) HasErrors() bool {
	return v.Errors != nil && v.Errors.Len() > 0
}

// AsError converts the accumulated errors into a single *Error of kind
// ValidationError, or nil if there were none.
func (v *ValidationResult) AsError() error {
	if !v.HasErrors() {
		return nil
	}
	v.Errors.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		out := msgs[0]
		for _, m := range msgs[1:] {
			out += "; " + m
		}
		return out
	}
	return New(KindValidationError, "%s", v.Errors.Error())
}

// Merge folds another validation result's errors and warnings into this one.
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	if other.Errors != nil {
		for _, e := range other.Errors.Errors {
			v.Errors = multierror.Append(v.Errors, e)
		}
	}
	v.Warnings = append(v.Warnings, other.Warnings...)
}
