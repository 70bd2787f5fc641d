package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// Outcome is the result of a terminated run. Reason is set only for
// rejected runs.
type Outcome struct {
	Status Status
	Value  *policyspace.CompoundValue
	Reason string
}

// Evaluator drives one run of a model's decision graph. It suspends at
// every question and resumes when given an answer.
//
// An Evaluator is not safe for concurrent use. Concurrent runs use
// separate evaluators over the same model.
type Evaluator struct {
	model     *model.Model
	graph     *decisiongraph.Graph
	config    *Config
	logger    *slog.Logger
	listeners []Listener
	runID     string

	status    Status
	current   string
	callStack []string
	value     *policyspace.CompoundValue // top of the value stack
	err       error
	steps     int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithConfig sets the evaluator limits.
func WithConfig(cfg *Config) Option {
	return func(e *Evaluator) {
		if cfg != nil {
			e.config = cfg
		}
	}
}

// WithLogger sets the logger used for evaluator diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithListener adds a listener. Listeners are called in the order added.
func WithListener(l Listener) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.listeners = append(e.listeners, l)
		}
	}
}

// WithRunID sets the run id. By default a random UUID is used.
func WithRunID(id string) Option {
	return func(e *Evaluator) {
		if id != "" {
			e.runID = id
		}
	}
}

// New creates an idle evaluator for m.
func New(m *model.Model, opts ...Option) (*Evaluator, error) {
	if m == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	e := &Evaluator{
		model:  m,
		graph:  m.Graph(),
		config: DefaultConfig(),
		logger: slog.Default(),
		runID:  uuid.NewString(),
		status: StatusIdle,
		value:  m.Space().Empty(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return e, nil
}

func (e *Evaluator) RunID() string         { return e.runID }
func (e *Evaluator) Model() *model.Model   { return e.model }
func (e *Evaluator) Status() Status        { return e.status }
func (e *Evaluator) CurrentNodeID() string { return e.current }
func (e *Evaluator) CallStack() []string   { return append([]string(nil), e.callStack...) }
func (e *Evaluator) Err() error            { return e.err }

// Steps returns the number of nodes visited so far.
func (e *Evaluator) Steps() int { return e.steps }

// Value returns the current accumulated value.
func (e *Evaluator) Value() *policyspace.CompoundValue { return e.value }

// CurrentNode returns the node the run is at, if any.
func (e *Evaluator) CurrentNode() (decisiongraph.Node, bool) {
	if e.current == "" {
		return nil, false
	}
	return e.graph.Node(e.current)
}

// Question returns the question the run is waiting on.
func (e *Evaluator) Question() (*decisiongraph.AskNode, bool) {
	if e.status != StatusAwaitingAnswer {
		return nil, false
	}
	n, _ := e.graph.Node(e.current)
	ask, ok := n.(*decisiongraph.AskNode)
	return ask, ok
}

// Outcome returns the outcome of a terminated run.
func (e *Evaluator) Outcome() (Outcome, bool) {
	if !e.status.IsTerminal() {
		return Outcome{}, false
	}
	out := Outcome{Status: e.status, Value: e.value}
	if e.status == StatusRejected {
		if n, ok := e.graph.Node(e.current); ok {
			if r, ok := n.(*decisiongraph.RejectNode); ok {
				out.Reason = r.Reason()
			}
		}
	}
	return out, true
}

// Info returns the identity of the run as seen by listeners.
func (e *Evaluator) Info() RunInfo {
	return RunInfo{
		RunID:        e.runID,
		ModelSource:  e.model.Source(),
		ModelVersion: e.model.Version(),
		GraphID:      e.graph.ID(),
	}
}

// Start begins the run and advances it to the first question or to a
// terminal state.
func (e *Evaluator) Start(ctx context.Context) error {
	if e.status != StatusIdle {
		return ErrAlreadyStarted
	}
	e.status = StatusRunning
	e.value = e.model.Space().Empty()
	e.callStack = nil

	info := e.Info()
	for _, l := range e.listeners {
		l.RunStarted(ctx, info)
	}
	return e.advance(ctx, e.graph.StartID())
}

// Answer resumes a run suspended at a question. The answer is matched
// exactly after trimming surrounding whitespace. An answer the question
// does not offer terminates the run with an *UnknownAnswerError.
func (e *Evaluator) Answer(ctx context.Context, answer string) error {
	ask, ok := e.Question()
	if !ok {
		return ErrNotAwaitingAnswer
	}

	answer = strings.TrimSpace(answer)
	next, ok := ask.Next(answer)
	if !ok {
		valid := make([]string, 0, len(ask.Answers()))
		for _, a := range ask.Answers() {
			valid = append(valid, a.Text)
		}
		suggestion := pmlErrors.SuggestAnswer(answer, valid)
		if strings.HasPrefix(suggestion, "Valid answers") {
			suggestion = ""
		}
		return e.fail(ctx, &UnknownAnswerError{
			NodeID:     ask.ID(),
			Answer:     answer,
			Valid:      valid,
			Suggestion: suggestion,
		})
	}

	e.status = StatusRunning
	return e.advance(ctx, next)
}

// advance visits nodes from id until the run suspends or terminates.
func (e *Evaluator) advance(ctx context.Context, id string) error {
	info := e.Info()
	for visits := 0; ; visits++ {
		if visits >= e.config.MaxSteps {
			return e.fail(ctx, &RuntimeError{
				RunID:   e.runID,
				NodeID:  id,
				Message: fmt.Sprintf("no question or terminal reached within %d steps", e.config.MaxSteps),
			})
		}

		node, ok := e.graph.Node(id)
		if !ok {
			return e.fail(ctx, &RuntimeError{RunID: e.runID, NodeID: id, Message: "node does not exist"})
		}
		e.current = id
		e.steps++
		for _, l := range e.listeners {
			l.NodeEntered(ctx, info, node)
		}

		switch n := node.(type) {
		case *decisiongraph.AskNode:
			e.status = StatusAwaitingAnswer
			return nil

		case *decisiongraph.ConsiderNode:
			id = e.consider(n)

		case *decisiongraph.SetNode:
			if err := e.set(n.Payload()); err != nil {
				return e.fail(ctx, &RuntimeError{RunID: e.runID, NodeID: n.ID(), Message: "set failed", Cause: err})
			}
			id = n.Next()

		case *decisiongraph.ToDoNode:
			id = n.Next()

		case *decisiongraph.CallNode:
			if err := e.push(n.Next()); err != nil {
				return e.fail(ctx, err)
			}
			id = n.Callee()

		case *decisiongraph.SectionNode:
			if err := e.push(n.Next()); err != nil {
				return e.fail(ctx, err)
			}
			id = n.Start()

		case *decisiongraph.PartNode:
			id = n.Start()

		case *decisiongraph.ContinueNode, *decisiongraph.EndNode:
			// A continue with no frame to leave ends the run like an end.
			if len(e.callStack) == 0 {
				e.terminate(ctx, StatusAccepted)
				return nil
			}
			id = e.pop()

		case *decisiongraph.RejectNode:
			e.terminate(ctx, StatusRejected)
			return nil

		default:
			return e.fail(ctx, &RuntimeError{RunID: e.runID, NodeID: id, Message: fmt.Sprintf("unsupported node kind %s", node.Kind())})
		}
	}
}

// consider returns the successor of the first option the current value
// contains, or the fallback when none matches.
func (e *Evaluator) consider(n *decisiongraph.ConsiderNode) string {
	for _, opt := range n.Options() {
		if e.value.Contains(opt.Pattern) {
			return opt.Next
		}
	}
	return n.Fallback()
}

// set composes payload into the current value and runs inference.
func (e *Evaluator) set(payload *policyspace.CompoundValue) error {
	if payload == nil {
		return nil
	}
	v, err := e.value.Compose(payload)
	if err != nil {
		return err
	}
	v, _, err = e.model.Infer(v)
	if err != nil {
		return err
	}
	e.value = v
	return nil
}

func (e *Evaluator) push(id string) error {
	if len(e.callStack) >= e.config.MaxCallDepth {
		return &RuntimeError{
			RunID:   e.runID,
			NodeID:  e.current,
			Message: fmt.Sprintf("call stack exceeds %d frames", e.config.MaxCallDepth),
		}
	}
	e.callStack = append(e.callStack, id)
	return nil
}

func (e *Evaluator) pop() string {
	top := e.callStack[len(e.callStack)-1]
	e.callStack = e.callStack[:len(e.callStack)-1]
	return top
}

func (e *Evaluator) terminate(ctx context.Context, status Status) {
	e.status = status
	out, _ := e.Outcome()
	info := e.Info()
	for _, l := range e.listeners {
		l.RunTerminated(ctx, info, out)
	}
}

// fail moves the run to the error state and returns err.
func (e *Evaluator) fail(ctx context.Context, err error) error {
	e.status = StatusError
	e.err = err
	info := e.Info()
	for _, l := range e.listeners {
		l.RunError(ctx, info, err)
	}
	e.logger.Debug("run failed", "run_id", e.runID, "node", e.current, "error", err)
	return err
}
