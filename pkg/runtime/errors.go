package runtime

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	// ErrNotAwaitingAnswer indicates an answer was given while the run was
	// not suspended at a question.
	ErrNotAwaitingAnswer = errors.New("run is not awaiting an answer")

	// ErrAlreadyStarted indicates Start was called on a run that has left
	// the idle state.
	ErrAlreadyStarted = errors.New("run already started")

	// ErrInvalidConfig indicates invalid evaluator configuration.
	ErrInvalidConfig = errors.New("invalid evaluator configuration")
)

// UnknownAnswerError indicates an answer the current question does not
// offer.
type UnknownAnswerError struct {
	NodeID     string
	Answer     string
	Valid      []string
	Suggestion string
}

// Error returns the error message.
func (e *UnknownAnswerError) Error() string {
	msg := fmt.Sprintf("question %s has no answer %q (valid: %s)", e.NodeID, e.Answer, strings.Join(e.Valid, ", "))
	if e.Suggestion != "" {
		msg += "; " + e.Suggestion
	}
	return msg
}

// StaleSnapshotError indicates a snapshot that does not fit the model it is
// restored against.
type StaleSnapshotError struct {
	Field string // Snapshot field that failed to match
	Want  string // Value expected by the model
	Got   string // Value found in the snapshot
	Cause error
}

// Error returns the error message.
func (e *StaleSnapshotError) Error() string {
	switch {
	case e.Want != "":
		return fmt.Sprintf("stale snapshot: %s is %q, model expects %q", e.Field, e.Got, e.Want)
	case e.Cause != nil && e.Got != "":
		return fmt.Sprintf("stale snapshot: %s %q: %v", e.Field, e.Got, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("stale snapshot: %s: %v", e.Field, e.Cause)
	}
	return fmt.Sprintf("stale snapshot: %s %q does not exist in the model", e.Field, e.Got)
}

// Unwrap returns the underlying cause.
func (e *StaleSnapshotError) Unwrap() error {
	return e.Cause
}

// RuntimeError indicates a transition that could not be performed. The run
// that raised it is in the error state.
type RuntimeError struct {
	RunID   string
	NodeID  string
	Message string
	Cause   error
}

// Error returns the error message.
func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("run %s node %s: %s: %v", e.RunID, e.NodeID, e.Message, e.Cause)
	}
	return fmt.Sprintf("run %s node %s: %s", e.RunID, e.NodeID, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}
