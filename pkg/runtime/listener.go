package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
)

// RunInfo identifies a run to listeners.
type RunInfo struct {
	RunID        string
	ModelSource  string
	ModelVersion string
	GraphID      string
}

// Listener observes a run. Callbacks fire synchronously in visit order and
// must not call back into the evaluator.
type Listener interface {
	RunStarted(ctx context.Context, run RunInfo)
	NodeEntered(ctx context.Context, run RunInfo, node decisiongraph.Node)
	RunTerminated(ctx context.Context, run RunInfo, outcome Outcome)
	RunError(ctx context.Context, run RunInfo, err error)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are
// skipped.
type ListenerFuncs struct {
	OnRunStarted    func(ctx context.Context, run RunInfo)
	OnNodeEntered   func(ctx context.Context, run RunInfo, node decisiongraph.Node)
	OnRunTerminated func(ctx context.Context, run RunInfo, outcome Outcome)
	OnRunError      func(ctx context.Context, run RunInfo, err error)
}

func (l ListenerFuncs) RunStarted(ctx context.Context, run RunInfo) {
	if l.OnRunStarted != nil {
		l.OnRunStarted(ctx, run)
	}
}

func (l ListenerFuncs) NodeEntered(ctx context.Context, run RunInfo, node decisiongraph.Node) {
	if l.OnNodeEntered != nil {
		l.OnNodeEntered(ctx, run, node)
	}
}

func (l ListenerFuncs) RunTerminated(ctx context.Context, run RunInfo, outcome Outcome) {
	if l.OnRunTerminated != nil {
		l.OnRunTerminated(ctx, run, outcome)
	}
}

func (l ListenerFuncs) RunError(ctx context.Context, run RunInfo, err error) {
	if l.OnRunError != nil {
		l.OnRunError(ctx, run, err)
	}
}

// TracingListener records the ids of the nodes a run visits and forwards
// every callback to the listener it wraps, if any.
type TracingListener struct {
	next Listener

	mu      sync.Mutex
	visited []string
}

// NewTracingListener returns a tracing listener decorating next. next may
// be nil.
func NewTracingListener(next Listener) *TracingListener {
	return &TracingListener{next: next}
}

// Visited returns the ids of the visited nodes in visit order.
func (l *TracingListener) Visited() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.visited...)
}

// Reset clears the recorded trace.
func (l *TracingListener) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visited = nil
}

func (l *TracingListener) RunStarted(ctx context.Context, run RunInfo) {
	if l.next != nil {
		l.next.RunStarted(ctx, run)
	}
}

func (l *TracingListener) NodeEntered(ctx context.Context, run RunInfo, node decisiongraph.Node) {
	l.mu.Lock()
	l.visited = append(l.visited, node.ID())
	l.mu.Unlock()
	if l.next != nil {
		l.next.NodeEntered(ctx, run, node)
	}
}

func (l *TracingListener) RunTerminated(ctx context.Context, run RunInfo, outcome Outcome) {
	if l.next != nil {
		l.next.RunTerminated(ctx, run, outcome)
	}
}

func (l *TracingListener) RunError(ctx context.Context, run RunInfo, err error) {
	if l.next != nil {
		l.next.RunError(ctx, run, err)
	}
}

// LoggingListener writes run events to a structured logger. Node visits are
// logged at debug level.
type LoggingListener struct {
	logger *slog.Logger
}

// NewLoggingListener creates a logging listener. A nil logger uses
// slog.Default().
func NewLoggingListener(logger *slog.Logger) *LoggingListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingListener{logger: logger}
}

func (l *LoggingListener) RunStarted(ctx context.Context, run RunInfo) {
	l.logger.InfoContext(ctx, "run started",
		"run_id", run.RunID,
		"model", run.ModelSource,
		"model_version", run.ModelVersion,
	)
}

func (l *LoggingListener) NodeEntered(ctx context.Context, run RunInfo, node decisiongraph.Node) {
	l.logger.DebugContext(ctx, "node entered",
		"run_id", run.RunID,
		"node", node.ID(),
		"kind", node.Kind(),
	)
}

func (l *LoggingListener) RunTerminated(ctx context.Context, run RunInfo, outcome Outcome) {
	attrs := []any{"run_id", run.RunID, "status", string(outcome.Status)}
	if outcome.Reason != "" {
		attrs = append(attrs, "reason", outcome.Reason)
	}
	l.logger.InfoContext(ctx, "run terminated", attrs...)
}

func (l *LoggingListener) RunError(ctx context.Context, run RunInfo, err error) {
	l.logger.ErrorContext(ctx, "run failed", "run_id", run.RunID, "error", err)
}
