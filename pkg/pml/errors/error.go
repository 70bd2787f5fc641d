package errors

import (
	"fmt"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
)

// ErrorType is the compilation phase or check that produced a diagnostic.
type ErrorType string

const (
	ErrorTypeSyntax     ErrorType = "syntax"
	ErrorTypeStructural ErrorType = "structural" // missing or mistyped fields
	ErrorTypeSemantic   ErrorType = "semantic"   // duplicate ids, unresolved calls, bad slot declarations
	ErrorTypeBadSet     ErrorType = "bad-set"    // set or consider assignments that do not resolve
	ErrorTypeValidation ErrorType = "validation" // graph checks such as reachability
	ErrorTypeIO         ErrorType = "io"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Error is one diagnostic produced while loading a model. A zero Severity
// is an error.
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Location   ast.Location
	NodeID     string
	Context    string // source excerpt, see ExtractContext
	Suggestion string
	Cause      error
}

func (e *Error) IsWarning() bool { return e.Severity == SeverityWarning }

// Error renders the diagnostic in a compiler-like layout:
//
//	model.yaml:4:3: semantic error: duplicate id 'q1' (node "q1")
//	  2 | ...
//	  hint: Rename one of the nodes
func (e *Error) Error() string {
	var sb strings.Builder
	if e.Location.IsValid() {
		sb.WriteString(e.Location.String())
		sb.WriteString(": ")
	}
	kind := SeverityError
	if e.IsWarning() {
		kind = SeverityWarning
	}
	fmt.Fprintf(&sb, "%s %s: %s", e.Type, kind, e.Message)
	if e.NodeID != "" {
		fmt.Fprintf(&sb, " (node %q)", e.NodeID)
	}
	sb.WriteByte('\n')
	sb.WriteString(e.Context)
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, "  hint: %s\n", e.Suggestion)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// ErrorList accumulates the diagnostics of a load so that every problem
// in a model is reported at once. Warnings never make it fail.
type ErrorList struct {
	Errors []*Error
}

func NewErrorList() *ErrorList {
	return &ErrorList{Errors: []*Error{}}
}

func (el *ErrorList) Add(err *Error) { el.Errors = append(el.Errors, err) }

// Merge appends the diagnostics of other, which may be nil.
func (el *ErrorList) Merge(other *ErrorList) {
	if other != nil {
		el.Errors = append(el.Errors, other.Errors...)
	}
}

func (el *ErrorList) AddError(errType ErrorType, message string, location ast.Location) {
	el.Add(&Error{Type: errType, Message: message, Location: location})
}

func (el *ErrorList) AddErrorWithSuggestion(errType ErrorType, message string, location ast.Location, suggestion string) {
	el.Add(&Error{Type: errType, Message: message, Location: location, Suggestion: suggestion})
}

func (el *ErrorList) AddWarning(errType ErrorType, message string, location ast.Location, nodeID string) {
	el.Add(&Error{Type: errType, Severity: SeverityWarning, Message: message, Location: location, NodeID: nodeID})
}

func (el *ErrorList) filter(keep func(*Error) bool) []*Error {
	var out []*Error
	for _, e := range el.Errors {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// HasErrors reports whether any diagnostic is an error.
func (el *ErrorList) HasErrors() bool {
	return len(el.filter(func(e *Error) bool { return !e.IsWarning() })) > 0
}

// Count is the number of diagnostics, warnings included.
func (el *ErrorList) Count() int { return len(el.Errors) }

func (el *ErrorList) Warnings() []*Error {
	return el.filter((*Error).IsWarning)
}

// ByType returns the diagnostics of type t, warnings included.
func (el *ErrorList) ByType(t ErrorType) []*Error {
	return el.filter(func(e *Error) bool { return e.Type == t })
}

// HasErrorType reports whether an error, not a warning, of type t exists.
func (el *ErrorList) HasErrorType(t ErrorType) bool {
	return len(el.filter(func(e *Error) bool { return e.Type == t && !e.IsWarning() })) > 0
}

func (el *ErrorList) Error() string {
	if len(el.Errors) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d problem(s) in model:\n", len(el.Errors))
	for _, e := range el.Errors {
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// ToError returns el when it holds at least one error and nil otherwise.
func (el *ErrorList) ToError() error {
	if el.HasErrors() {
		return el
	}
	return nil
}
