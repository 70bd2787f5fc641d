package runtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// Snapshot is the serialized state of a run. Its JSON form is stable:
// field names and array order are part of the format.
type Snapshot struct {
	ModelVersion string         `json:"modelVersion" yaml:"modelVersion"`
	ModelSource  string         `json:"modelSource" yaml:"modelSource"`
	Status       Status         `json:"status" yaml:"status"`
	CurrentChart string         `json:"currentChart" yaml:"currentChart"`
	CurrentNode  string         `json:"currentNode" yaml:"currentNode"`
	CallStack    []string       `json:"callStack" yaml:"callStack"`
	Value        map[string]any `json:"value" yaml:"value"`
}

// Snapshot captures the evaluator's state.
func (e *Evaluator) Snapshot() *Snapshot {
	return &Snapshot{
		ModelVersion: e.model.Version(),
		ModelSource:  e.model.Source(),
		Status:       e.status,
		CurrentChart: e.graph.ID(),
		CurrentNode:  e.current,
		CallStack:    append([]string{}, e.callStack...),
		Value:        policyspace.Serialize(e.value),
	}
}

// Encode returns the JSON form of the snapshot.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses the JSON form of a snapshot. Unknown fields are an
// error.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid snapshot: trailing data")
	}
	if _, err := ParseStatus(string(s.Status)); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return &s, nil
}

// Restore rebuilds an evaluator from a snapshot taken against m. Every id in
// the snapshot must exist in m's graph and the model version must match;
// otherwise a *StaleSnapshotError is returned.
func Restore(m *model.Model, s *Snapshot, opts ...Option) (*Evaluator, error) {
	if s == nil {
		return nil, errors.New("snapshot cannot be nil")
	}
	e, err := New(m, opts...)
	if err != nil {
		return nil, err
	}

	if s.ModelVersion != m.Version() {
		return nil, &StaleSnapshotError{Field: "modelVersion", Want: m.Version(), Got: s.ModelVersion}
	}
	if s.CurrentChart != e.graph.ID() {
		return nil, &StaleSnapshotError{Field: "currentChart", Want: e.graph.ID(), Got: s.CurrentChart}
	}
	status, err := ParseStatus(string(s.Status))
	if err != nil {
		return nil, err
	}

	if s.CurrentNode != "" {
		if _, ok := e.graph.Node(s.CurrentNode); !ok {
			return nil, &StaleSnapshotError{Field: "currentNode", Got: s.CurrentNode}
		}
	}
	if status == StatusAwaitingAnswer {
		n, _ := e.graph.Node(s.CurrentNode)
		if _, ok := n.(*decisiongraph.AskNode); !ok {
			return nil, &StaleSnapshotError{Field: "currentNode", Got: s.CurrentNode, Cause: errors.New("run awaits an answer but the node is not a question")}
		}
	}
	for _, id := range s.CallStack {
		if _, ok := e.graph.Node(id); !ok {
			return nil, &StaleSnapshotError{Field: "callStack", Got: id}
		}
	}

	value, err := m.Space().Deserialize(s.Value)
	if err != nil {
		return nil, &StaleSnapshotError{Field: "value", Cause: err}
	}

	e.status = status
	e.current = s.CurrentNode
	e.callStack = append([]string(nil), s.CallStack...)
	e.value = value
	if status == StatusError {
		e.err = &RuntimeError{RunID: e.runID, NodeID: e.current, Message: "restored in the error state"}
	}
	return e, nil
}
