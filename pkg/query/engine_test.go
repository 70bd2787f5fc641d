package query

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

const scenarioSpace = `metadata:
  title: scenarios
  version: "1"
space:
  root: Top
  slots:
    - name: Top
      consists_of: [Color, Test, TestI, A]
    - {name: Color, one_of: [Blue, Red]}
    - {name: Test, one_of: [Works, Not]}
    - {name: TestI, one_of: ["yes", "no"]}
    - {name: A, one_of: [a0, a1]}
inferrers:
  - slot: Color
    rules:
      - {when: {A: a1}, then: Red}
`

func loadModel(t *testing.T, graph string) *model.Model {
	t.Helper()
	m, _, err := pml.LoadBytes([]byte(scenarioSpace+graph), "memory://scenarios")
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	return m
}

func lookup(t *testing.T, m *model.Model, slot, value string) *policyspace.CompoundValue {
	t.Helper()
	res := m.Space().LookupValue([]string{slot}, value)
	if res.Kind != policyspace.Success {
		t.Fatalf("LookupValue(%s, %s) = %v", slot, value, res.Kind)
	}
	return res.Value
}

func answersOf(traces []Trace) [][]AnswerStep {
	out := make([][]AnswerStep, len(traces))
	for i, tr := range traces {
		out[i] = tr.Answers
	}
	return out
}

const choiceGraph = `graph:
  - id: q
    ask:
      text: which one?
      answers:
        - answer: first
          do:
            - set: {A: a0}
        - answer: second
          do:
            - set: {A: a1}
  - end
`

func TestEngine_MatchAndNonMatch(t *testing.T) {
	m := loadModel(t, choiceGraph)

	res, err := New(m).Collect(context.Background(), lookup(t, m, "A", "a1"))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	wantMatches := [][]AnswerStep{{{NodeID: "q", Answer: "second"}}}
	if diff := cmp.Diff(wantMatches, answersOf(res.Matches)); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
	wantNon := [][]AnswerStep{{{NodeID: "q", Answer: "first"}}}
	if diff := cmp.Diff(wantNon, answersOf(res.NonMatches)); diff != "" {
		t.Errorf("non-matches (-want +got):\n%s", diff)
	}
	if got := policyspace.Serialize(res.Matches[0].Value); !cmp.Equal(got, map[string]any{"A": "a1", "Color": "Red"}) {
		t.Errorf("match value = %v", got)
	}
	if res.Stats.Matches != 1 || res.Stats.NonMatches != 1 || res.Stats.Rejections != 0 {
		t.Errorf("Stats = %+v", res.Stats)
	}
}

func TestEngine_MatchModes(t *testing.T) {
	m := loadModel(t, choiceGraph)
	target := lookup(t, m, "A", "a0")

	tests := []struct {
		mode        MatchMode
		wantMatches int
	}{
		{MatchContains, 1},
		{MatchAtLeast, 2},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			res, err := New(m, WithMatchMode(tt.mode)).Collect(context.Background(), target)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Matches) != tt.wantMatches {
				t.Errorf("matches = %d, want %d", len(res.Matches), tt.wantMatches)
			}
			if len(res.Matches)+len(res.NonMatches) != 2 {
				t.Errorf("accepted paths = %d, want 2", len(res.Matches)+len(res.NonMatches))
			}
		})
	}

	res, err := New(m).Collect(context.Background(), target)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 {
		t.Errorf("default mode matches = %d, want 1 (contains)", len(res.Matches))
	}
}

func TestParseMatchMode(t *testing.T) {
	for _, mode := range []MatchMode{MatchContains, MatchAtLeast} {
		got, err := ParseMatchMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseMatchMode(%q) = %v, %v", mode, got, err)
		}
	}
	if _, err := ParseMatchMode("exact"); err == nil {
		t.Error("ParseMatchMode(exact) succeeded")
	}
}

func TestEngine_EveryMatchingOption(t *testing.T) {
	m := loadModel(t, `graph:
  - set: {A: a1}
  - id: c
    consider:
      options:
        - when: {A: a1}
          do:
            - set: {TestI: "yes"}
        - when: {Color: Red}
          do:
            - set: {TestI: "no"}
        - when: {A: a0}
          do:
            - reject: unreachable
      else:
        - reject: nothing matched
  - end
`)
	res, err := New(m).Collect(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rejections) != 0 {
		t.Errorf("rejections = %+v, want none", res.Rejections)
	}
	var got []any
	for _, tr := range res.Matches {
		got = append(got, policyspace.Serialize(tr.Value)["TestI"])
	}
	if diff := cmp.Diff([]any{"yes", "no"}, got); diff != "" {
		t.Errorf("TestI per path (-want +got):\n%s", diff)
	}
}

func TestEngine_ElseAndRejections(t *testing.T) {
	m := loadModel(t, `graph:
  - id: q
    ask:
      text: continue?
      answers:
        - answer: "yes"
          do:
            - set: {A: a0}
        - answer: "no"
          do:
            - reject: declined
  - consider:
      options:
        - when: {A: a1}
          do:
            - reject: wrong branch
      else:
        - set: {Test: Works}
  - end
`)
	res, err := New(m).Collect(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(res.Matches))
	}
	if got := policyspace.Serialize(res.Matches[0].Value); !cmp.Equal(got, map[string]any{"A": "a0", "Test": "Works"}) {
		t.Errorf("match value = %v", got)
	}
	if len(res.Rejections) != 1 || res.Rejections[0].Reason != "declined" {
		t.Fatalf("rejections = %+v", res.Rejections)
	}
	if got := res.Rejections[0].String(); got != "q=no" {
		t.Errorf("rejection trace = %q", got)
	}
}

const everythingGraph = `graph:
  - id: q1
    ask:
      text: color?
      answers:
        - answer: red
          do:
            - set: {A: a1}
        - answer: blue
          do:
            - set: {A: a0}
  - id: c
    consider:
      options:
        - when: {A: a1}
          do:
            - call: P
      else:
        - todo: later
  - id: s
    section:
      title: wrap up
      do:
        - set: {TestI: "yes"}
  - end
  - id: P
    part:
      title: helper
      do:
        - set: {Test: Works}
        - continue
`

func TestEngine_ReachableNodes(t *testing.T) {
	m := loadModel(t, everythingGraph)

	got, err := New(m).ReachableNodes(context.Background())
	if err != nil {
		t.Fatalf("ReachableNodes() error = %v", err)
	}
	want := decisiongraph.Reachable(m.Graph())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visited nodes differ from reachable nodes (-want +got):\n%s", diff)
	}
}

func TestEngine_CallStackPerPath(t *testing.T) {
	m := loadModel(t, everythingGraph)

	res, err := New(m).Collect(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{
		{"A": "a1", "Color": "Red", "Test": "Works", "TestI": "yes"},
		{"A": "a0", "TestI": "yes"},
	}
	var got []map[string]any
	for _, tr := range res.Matches {
		got = append(got, policyspace.Serialize(tr.Value))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
	if first := res.Matches[0].Nodes; first[len(first)-1] != decisiongraph.EndID {
		t.Errorf("path ends at %s, want %s", first[len(first)-1], decisiongraph.EndID)
	}
}

func TestEngine_MaxDepth(t *testing.T) {
	m := loadModel(t, `graph:
  - call: P
  - end
  - id: P
    part:
      title: loop
      do:
        - id: again
          ask:
            text: again?
            answers:
              - answer: "yes"
                do:
                  - call: P
`)
	_, err := New(m, WithMaxDepth(50)).Collect(context.Background(), nil)
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("Collect() error = %v, want ErrMaxDepthExceeded", err)
	}
}

func TestEngine_Cancelled(t *testing.T) {
	m := loadModel(t, choiceGraph)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := false
	_, err := New(m).Run(ctx, nil, ListenerFuncs{OnDone: func(context.Context, Stats) { done = true }})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if done {
		t.Error("Done called for an aborted query")
	}
}

func TestEngine_ListenerOrder(t *testing.T) {
	m := loadModel(t, choiceGraph)

	var events []string
	l := ListenerFuncs{
		OnStarted:       func(context.Context, *policyspace.CompoundValue) { events = append(events, "started") },
		OnMatchFound:    func(_ context.Context, tr Trace) { events = append(events, "match "+tr.String()) },
		OnNonMatchFound: func(_ context.Context, tr Trace) { events = append(events, "non-match "+tr.String()) },
		OnDone:          func(context.Context, Stats) { events = append(events, "done") },
	}
	if _, err := New(m).Run(context.Background(), lookup(t, m, "A", "a1"), l); err != nil {
		t.Fatal(err)
	}
	want := []string{"started", "non-match q=first", "match q=second", "done"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}
