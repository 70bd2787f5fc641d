package runtime

import "fmt"

// Status is the state of a run.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusRunning        Status = "running"
	StatusAwaitingAnswer Status = "awaiting-answer"
	StatusAccepted       Status = "accepted"
	StatusRejected       Status = "rejected"
	StatusError          Status = "error"
)

// IsTerminal returns true if no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusError
}

// ParseStatus parses the string form of a status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusIdle, StatusRunning, StatusAwaitingAnswer, StatusAccepted, StatusRejected, StatusError:
		return st, nil
	}
	return "", fmt.Errorf("unknown run status %q", s)
}
