package runtime

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
`

func loadModel(t *testing.T, body string) *model.Model {
	t.Helper()
	m, _, err := pml.LoadBytes([]byte(scenarioSpace+body), "memory://scenarios")
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	return m
}

func newEvaluator(t *testing.T, m *model.Model, opts ...Option) *Evaluator {
	t.Helper()
	e, err := New(m, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

// run starts a run and feeds it answers in order.
func run(t *testing.T, m *model.Model, answers ...string) *Evaluator {
	t.Helper()
	ctx := context.Background()
	e := newEvaluator(t, m)
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for _, a := range answers {
		if err := e.Answer(ctx, a); err != nil {
			t.Fatalf("Answer(%q) error = %v", a, err)
		}
	}
	return e
}

func wantOutcome(t *testing.T, e *Evaluator, status Status, value map[string]any) {
	t.Helper()
	out, ok := e.Outcome()
	if !ok {
		t.Fatalf("run not terminated, status = %s", e.Status())
	}
	if out.Status != status {
		t.Errorf("Outcome().Status = %s, want %s (err: %v)", out.Status, status, e.Err())
	}
	if diff := cmp.Diff(value, policyspace.Serialize(out.Value)); diff != "" {
		t.Errorf("Outcome().Value mismatch (-want +got):\n%s", diff)
	}
}

const impliedAskGraph = `graph:
  - ask:
      text: proceed?
      answers:
        - answer: "yes"
          do:
            - set: {A: a1}
  - end
`

func TestEvaluator_ImpliedAnswer(t *testing.T) {
	m := loadModel(t, impliedAskGraph)

	e := run(t, m)
	q, ok := e.Question()
	if !ok || q.Text() != "proceed?" {
		t.Fatalf("Question() = %v, %v", q, ok)
	}

	wantOutcome(t, run(t, m, "yes"), StatusAccepted, map[string]any{"A": "a1"})
	wantOutcome(t, run(t, m, "no"), StatusAccepted, map[string]any{})
	wantOutcome(t, run(t, m, "  yes \n"), StatusAccepted, map[string]any{"A": "a1"})
}

func TestEvaluator_QuestionWithoutAnswers(t *testing.T) {
	m := loadModel(t, `graph:
  - ask:
      text: proceed?
  - set: {A: a1}
  - end
`)
	wantOutcome(t, run(t, m, "yes"), StatusAccepted, map[string]any{"A": "a1"})
	wantOutcome(t, run(t, m, "no"), StatusAccepted, map[string]any{"A": "a1"})
}

func TestEvaluator_InferenceFixpoint(t *testing.T) {
	m := loadModel(t, `inferrers:
  - slot: Color
    rules:
      - {when: {A: a0}, then: Blue}
      - {when: {A: a1}, then: Red}
  - slot: Test
    rules:
      - {when: {TestI: "yes"}, then: Works}
graph:
  - set: {A: a0}
  - set: {TestI: "yes"}
  - end
`)
	wantOutcome(t, run(t, m), StatusAccepted, map[string]any{
		"A": "a0", "Color": "Blue", "TestI": "yes", "Test": "Works",
	})
}

func TestEvaluator_ConsiderOrdering(t *testing.T) {
	m := loadModel(t, `graph:
  - set: {A: a1}
  - consider:
      options:
        - when: {A: a0}
          do: [{reject: "no"}]
        - when: {A: a1}
          do: [{set: {Color: Red}}]
  - end
`)
	wantOutcome(t, run(t, m), StatusAccepted, map[string]any{"A": "a1", "Color": "Red"})
}

func TestEvaluator_ConsiderFallback(t *testing.T) {
	tests := []struct {
		name  string
		graph string
		want  map[string]any
	}{
		{
			name: "else taken when nothing matches",
			graph: `graph:
  - consider:
      options:
        - when: {A: a1}
          do: [{set: {Color: Red}}]
      else:
        - set: {Color: Blue}
  - set: {Test: Works}
  - end
`,
			want: map[string]any{"Color": "Blue", "Test": "Works"},
		},
		{
			name: "falls through without else",
			graph: `graph:
  - consider:
      options:
        - when: {A: a1}
          do: [{reject: never}]
  - set: {Test: Not}
  - end
`,
			want: map[string]any{"Test": "Not"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantOutcome(t, run(t, loadModel(t, tt.graph)), StatusAccepted, tt.want)
		})
	}
}

func TestEvaluator_CallContinue(t *testing.T) {
	m := loadModel(t, `graph:
  - id: P
    part:
      do:
        - set: {Color: Blue}
        - end
  - call: P
  - set: {Test: Works}
  - end
`)
	tracer := NewTracingListener(nil)
	e := newEvaluator(t, m, WithListener(tracer))
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	wantOutcome(t, e, StatusAccepted, map[string]any{"Color": "Blue", "Test": "Works"})

	visited := tracer.Visited()
	if len(visited) == 0 || visited[0] == "P" {
		t.Fatalf("Visited() = %v, want the call first", visited)
	}
	var sawPart bool
	for _, id := range visited {
		sawPart = sawPart || id == "P"
	}
	if !sawPart {
		t.Errorf("Visited() = %v, want P", visited)
	}
	if visited[len(visited)-1] != decisiongraph.EndID {
		t.Errorf("last visited = %s, want %s", visited[len(visited)-1], decisiongraph.EndID)
	}
}

func TestEvaluator_PartSkippedInFlow(t *testing.T) {
	m := loadModel(t, `graph:
  - set: {A: a1}
  - id: P
    part:
      do:
        - set: {Color: Blue}
        - end
  - set: {Test: Works}
  - end
`)
	wantOutcome(t, run(t, m), StatusAccepted, map[string]any{"A": "a1", "Test": "Works"})
}

func TestEvaluator_SectionAndContinue(t *testing.T) {
	m := loadModel(t, `graph:
  - section:
      title: first
      do:
        - set: {A: a0}
        - continue
        - set: {A: a1}
  - set: {Test: Works}
  - continue
`)
	// The continue inside the section leaves it early; the top-level one
	// has no frame to leave and ends the run.
	wantOutcome(t, run(t, m), StatusAccepted, map[string]any{"A": "a0", "Test": "Works"})
}

func TestEvaluator_Reject(t *testing.T) {
	m := loadModel(t, `graph:
  - set: {A: a0}
  - reject: too risky
  - set: {A: a1}
  - end
`)
	e := run(t, m)
	out, _ := e.Outcome()
	if out.Status != StatusRejected || out.Reason != "too risky" {
		t.Errorf("Outcome() = %+v, want rejected with reason", out)
	}
	if got := policyspace.Serialize(out.Value); got["A"] != "a0" {
		t.Errorf("value = %v, want A=a0", got)
	}
}

func TestEvaluator_UnknownAnswer(t *testing.T) {
	m := loadModel(t, impliedAskGraph)
	e := run(t, m)

	var rec []error
	e.listeners = append(e.listeners, ListenerFuncs{
		OnRunError: func(_ context.Context, _ RunInfo, err error) { rec = append(rec, err) },
	})

	err := e.Answer(context.Background(), "yse")
	var uae *UnknownAnswerError
	if !errors.As(err, &uae) {
		t.Fatalf("Answer() error = %v, want *UnknownAnswerError", err)
	}
	if uae.Suggestion == "" || !cmp.Equal(uae.Valid, []string{"yes", "no"}) {
		t.Errorf("UnknownAnswerError = %+v", uae)
	}
	if e.Status() != StatusError || !errors.Is(e.Err(), err) {
		t.Errorf("Status() = %s, Err() = %v", e.Status(), e.Err())
	}
	if len(rec) != 1 {
		t.Errorf("RunError calls = %d, want 1", len(rec))
	}
	if err := e.Answer(context.Background(), "yes"); !errors.Is(err, ErrNotAwaitingAnswer) {
		t.Errorf("Answer() after failure error = %v, want ErrNotAwaitingAnswer", err)
	}
}

func TestEvaluator_LifecycleErrors(t *testing.T) {
	m := loadModel(t, impliedAskGraph)
	e := newEvaluator(t, m)
	ctx := context.Background()

	if err := e.Answer(ctx, "yes"); !errors.Is(err, ErrNotAwaitingAnswer) {
		t.Errorf("Answer() before Start error = %v", err)
	}
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
	if _, ok := e.Outcome(); ok {
		t.Error("Outcome() reported for a suspended run")
	}
	if _, err := New(m, WithConfig(&Config{})); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() with zero config error = %v", err)
	}
	if _, err := New(nil); err == nil {
		t.Error("New(nil) succeeded")
	}
}

func TestEvaluator_StepLimit(t *testing.T) {
	base := loadModel(t, "graph: [end]\n")
	b := decisiongraph.NewBuilder("loop")
	if err := b.Add(decisiongraph.NewToDo("t", "spin", "t")); err != nil {
		t.Fatal(err)
	}
	b.SetStart("t")
	g, err := b.Seal()
	if err != nil {
		t.Fatal(err)
	}
	m, err := model.New(base.Metadata(), base.Space(), g, nil)
	if err != nil {
		t.Fatal(err)
	}

	e := newEvaluator(t, m, WithConfig(DefaultConfig().WithMaxSteps(10)))
	err = e.Start(context.Background())
	var rte *RuntimeError
	if !errors.As(err, &rte) {
		t.Fatalf("Start() error = %v, want *RuntimeError", err)
	}
	if e.Status() != StatusError || e.Steps() != 10 {
		t.Errorf("Status() = %s, Steps() = %d", e.Status(), e.Steps())
	}
}

func TestEvaluator_CallDepthLimit(t *testing.T) {
	m := loadModel(t, `graph:
  - call: P
  - end
  - id: P
    part:
      do:
        - ask:
            text: again?
            answers:
              - answer: "yes"
                do: [{call: P}]
`)
	e := newEvaluator(t, m, WithConfig(DefaultConfig().WithMaxCallDepth(2)))
	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Answer(ctx, "yes"); err != nil {
		t.Fatalf("first Answer() error = %v", err)
	}
	if got := len(e.CallStack()); got != 2 {
		t.Errorf("call stack depth = %d, want 2", got)
	}
	var rte *RuntimeError
	if err := e.Answer(ctx, "yes"); !errors.As(err, &rte) {
		t.Errorf("Answer() error = %v, want call depth error", err)
	}

	// Answering no unwinds every frame.
	e = run(t, m, "no")
	wantOutcome(t, e, StatusAccepted, map[string]any{})
}

func TestEvaluator_Listeners(t *testing.T) {
	m := loadModel(t, impliedAskGraph)
	var events []string
	l := ListenerFuncs{
		OnRunStarted:  func(context.Context, RunInfo) { events = append(events, "started") },
		OnNodeEntered: func(_ context.Context, _ RunInfo, n decisiongraph.Node) { events = append(events, n.Kind()) },
		OnRunTerminated: func(_ context.Context, run RunInfo, out Outcome) {
			events = append(events, "terminated:"+string(out.Status))
			if run.RunID != "fixed" || run.ModelVersion != "1" {
				t.Errorf("RunInfo = %+v", run)
			}
		},
	}
	e := newEvaluator(t, m, WithListener(l), WithListener(NewLoggingListener(nil)), WithRunID("fixed"))
	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Answer(ctx, "yes"); err != nil {
		t.Fatal(err)
	}

	want := []string{"started", "ask", "set", "end", "terminated:accepted"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
