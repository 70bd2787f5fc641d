package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// DefaultMaxDepth bounds the number of nodes on a single explored path.
const DefaultMaxDepth = 10000

// ErrMaxDepthExceeded is returned when a path grows past the engine's depth
// limit, which happens when a part calls itself through a question.
var ErrMaxDepthExceeded = errors.New("query exceeded maximum path depth")

// MatchMode selects how a final value is compared to the query target.
type MatchMode int

const (
	// MatchContains reports a match when the value contains every assignment
	// of the target, the same test consider nodes use.
	MatchContains MatchMode = iota
	// MatchAtLeast reports a match when the value is at or above the target
	// in the lattice order.
	MatchAtLeast
)

func (m MatchMode) String() string {
	switch m {
	case MatchContains:
		return "contains"
	case MatchAtLeast:
		return "at-least"
	}
	return fmt.Sprintf("MatchMode(%d)", int(m))
}

// ParseMatchMode parses the String form of a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "contains":
		return MatchContains, nil
	case "at-least":
		return MatchAtLeast, nil
	}
	return 0, fmt.Errorf("unknown match mode %q (valid: contains, at-least)", s)
}

// Engine runs queries over one model. An Engine holds no per-query state
// and may be used concurrently.
type Engine struct {
	model    *model.Model
	logger   *slog.Logger
	maxDepth int
	mode     MatchMode
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxDepth sets the path depth limit. Non-positive values are ignored.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

func WithMatchMode(mode MatchMode) Option {
	return func(e *Engine) { e.mode = mode }
}

// New returns a query engine for m.
func New(m *model.Model, opts ...Option) *Engine {
	e := &Engine{
		model:    m,
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Model() *model.Model { return e.model }

// Run explores every path of the model's decision graph and reports each
// to l. An accepted path matches when its final value contains every
// assignment of target (MatchContains, the default). WithMatchMode(MatchAtLeast)
// compares in the lattice order instead, so a higher atomic value also
// matches. A nil target matches every accepted path.
func (e *Engine) Run(ctx context.Context, target *policyspace.CompoundValue, l Listener) (Stats, error) {
	if target == nil {
		target = e.model.Space().Empty()
	}
	q := &walk{
		ctx:      ctx,
		engine:   e,
		graph:    e.model.Graph(),
		target:   target,
		listener: l,
		visited:  make(map[string]bool),
	}
	start := time.Now()
	l.Started(ctx, target)
	err := q.walk(e.model.Graph().StartID(), state{value: e.model.Space().Empty()})
	q.stats.Duration = time.Since(start)
	if err != nil {
		e.logger.Debug("query aborted", "model", e.model.Source(), "error", err)
		return q.stats, err
	}
	l.Done(ctx, q.stats)
	e.logger.Debug("query finished",
		"model", e.model.Source(),
		"matches", q.stats.Matches,
		"non_matches", q.stats.NonMatches,
		"rejections", q.stats.Rejections,
		"visits", q.stats.Visits)
	return q.stats, nil
}

// Collect runs a query and returns every trace it produced.
func (e *Engine) Collect(ctx context.Context, target *policyspace.CompoundValue) (*Result, error) {
	res := &Result{}
	stats, err := e.Run(ctx, target, collector{res})
	res.Stats = stats
	return res, err
}

// ReachableNodes returns the ids of every node some run of the model can
// visit.
func (e *Engine) ReachableNodes(ctx context.Context) (map[string]bool, error) {
	q := &walk{
		ctx:      ctx,
		engine:   e,
		graph:    e.model.Graph(),
		target:   e.model.Space().Empty(),
		listener: ListenerFuncs{},
		visited:  make(map[string]bool),
	}
	if err := q.walk(e.model.Graph().StartID(), state{value: e.model.Space().Empty()}); err != nil {
		return nil, err
	}
	return q.visited, nil
}

func (e *Engine) matches(v, target *policyspace.CompoundValue) bool {
	if e.mode == MatchAtLeast {
		return policyspace.LessOrEqual(target, v)
	}
	return v.Contains(target)
}

// state is the run state along one path. Branches clone it so siblings
// never share slice storage.
type state struct {
	nodes     []string
	answers   []AnswerStep
	callStack []string
	value     *policyspace.CompoundValue
}

func (s state) clone() state {
	return state{
		nodes:     append([]string(nil), s.nodes...),
		answers:   append([]AnswerStep(nil), s.answers...),
		callStack: append([]string(nil), s.callStack...),
		value:     s.value,
	}
}

func (s state) trace() Trace {
	return Trace{
		Nodes:   append([]string(nil), s.nodes...),
		Answers: append([]AnswerStep(nil), s.answers...),
		Value:   s.value,
	}
}

// walk holds the bookkeeping of one query.
type walk struct {
	ctx      context.Context
	engine   *Engine
	graph    *decisiongraph.Graph
	target   *policyspace.CompoundValue
	listener Listener
	visited  map[string]bool
	stats    Stats
}

// walk follows the graph from id, recursing at every branch point.
func (q *walk) walk(id string, st state) error {
	for {
		if err := q.ctx.Err(); err != nil {
			return err
		}
		if len(st.nodes) >= q.engine.maxDepth {
			return fmt.Errorf("%w: %d nodes at %s", ErrMaxDepthExceeded, q.engine.maxDepth, id)
		}
		node, ok := q.graph.Node(id)
		if !ok {
			return fmt.Errorf("node %q does not exist", id)
		}

		st.nodes = append(st.nodes, id)
		q.visited[id] = true
		q.stats.Visits++
		if len(st.nodes) > q.stats.MaxDepth {
			q.stats.MaxDepth = len(st.nodes)
		}

		switch n := node.(type) {
		case *decisiongraph.AskNode:
			for _, a := range n.Answers() {
				br := st.clone()
				br.answers = append(br.answers, AnswerStep{NodeID: n.ID(), Answer: a.Text})
				if err := q.walk(a.Next, br); err != nil {
					return err
				}
			}
			return nil

		case *decisiongraph.ConsiderNode:
			matched := false
			for _, opt := range n.Options() {
				if !st.value.Contains(opt.Pattern) {
					continue
				}
				matched = true
				if err := q.walk(opt.Next, st.clone()); err != nil {
					return err
				}
			}
			if matched {
				return nil
			}
			id = n.Fallback()

		case *decisiongraph.SetNode:
			if p := n.Payload(); p != nil {
				v, err := st.value.Compose(p)
				if err != nil {
					return fmt.Errorf("set %s: %w", n.ID(), err)
				}
				if v, _, err = q.engine.model.Infer(v); err != nil {
					return fmt.Errorf("set %s: %w", n.ID(), err)
				}
				st.value = v
			}
			id = n.Next()

		case *decisiongraph.ToDoNode:
			id = n.Next()

		case *decisiongraph.CallNode:
			st.callStack = append(st.callStack, n.Next())
			id = n.Callee()

		case *decisiongraph.SectionNode:
			st.callStack = append(st.callStack, n.Next())
			id = n.Start()

		case *decisiongraph.PartNode:
			id = n.Start()

		case *decisiongraph.ContinueNode, *decisiongraph.EndNode:
			if len(st.callStack) == 0 {
				q.finish(st)
				return nil
			}
			id = st.callStack[len(st.callStack)-1]
			st.callStack = st.callStack[:len(st.callStack)-1]

		case *decisiongraph.RejectNode:
			tr := st.trace()
			tr.Reason = n.Reason()
			q.stats.Rejections++
			q.listener.Rejected(q.ctx, tr)
			return nil

		default:
			return fmt.Errorf("unsupported node kind %s at %s", node.Kind(), id)
		}
	}
}

func (q *walk) finish(st state) {
	tr := st.trace()
	if q.engine.matches(st.value, q.target) {
		q.stats.Matches++
		q.listener.MatchFound(q.ctx, tr)
		return
	}
	q.stats.NonMatches++
	q.listener.NonMatchFound(q.ctx, tr)
}
