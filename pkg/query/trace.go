package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// AnswerStep is one answer given along a path.
type AnswerStep struct {
	NodeID string
	Answer string
}

func (a AnswerStep) String() string { return fmt.Sprintf("%s=%s", a.NodeID, a.Answer) }

// Trace is one explored path: the nodes visited and the answers chosen, in
// order, and the value accumulated at its end.
type Trace struct {
	Nodes   []string
	Answers []AnswerStep
	Value   *policyspace.CompoundValue
	Reason  string // set for rejected paths
}

// String returns the answers of the trace separated by " > ".
func (t Trace) String() string {
	parts := make([]string, len(t.Answers))
	for i, a := range t.Answers {
		parts[i] = a.String()
	}
	return strings.Join(parts, " > ")
}

// Stats summarizes a query.
type Stats struct {
	Visits     int
	Matches    int
	NonMatches int
	Rejections int
	MaxDepth   int
	Duration   time.Duration
}
