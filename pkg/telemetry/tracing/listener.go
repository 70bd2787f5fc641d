package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
	"github.com/ofirbed/DataTaggingLibrary/pkg/query"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
)

// RunListener returns a runtime.Listener that annotates the span in the
// callback context: node visits become span events, and the outcome or
// error is set on the span. It does not start or end spans.
func RunListener() runtime.Listener {
	return runListener{}
}

type runListener struct{}

func (runListener) RunStarted(ctx context.Context, run runtime.RunInfo) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("run.started", trace.WithAttributes(RunAttributes(run)...))
}

func (runListener) NodeEntered(ctx context.Context, _ runtime.RunInfo, node decisiongraph.Node) {
	trace.SpanFromContext(ctx).AddEvent("node.entered", trace.WithAttributes(
		AttrNodeID.String(node.ID()),
		AttrNodeKind.String(node.Kind()),
	))
}

func (runListener) RunTerminated(ctx context.Context, _ runtime.RunInfo, outcome runtime.Outcome) {
	SetOutcomeAttributes(trace.SpanFromContext(ctx), outcome)
}

func (runListener) RunError(ctx context.Context, _ runtime.RunInfo, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(AttrRunStatus.String(string(runtime.StatusError)))
	recordError(span, err)
}

// QueryListener returns a query.Listener that adds an event per matching
// path and the query counters to the span in the callback context, then
// forwards every callback to next. next may be nil.
func QueryListener(next query.Listener) query.Listener {
	if next == nil {
		next = query.ListenerFuncs{}
	}
	return queryListener{next: next}
}

type queryListener struct {
	next query.Listener
}

func (l queryListener) Started(ctx context.Context, target *policyspace.CompoundValue) {
	l.next.Started(ctx, target)
}

func (l queryListener) MatchFound(ctx context.Context, tr query.Trace) {
	trace.SpanFromContext(ctx).AddEvent("query.match", trace.WithAttributes(
		AttrQueryTrace.String(tr.String()),
	))
	l.next.MatchFound(ctx, tr)
}

func (l queryListener) NonMatchFound(ctx context.Context, tr query.Trace) {
	l.next.NonMatchFound(ctx, tr)
}

func (l queryListener) Rejected(ctx context.Context, tr query.Trace) {
	l.next.Rejected(ctx, tr)
}

func (l queryListener) Done(ctx context.Context, stats query.Stats) {
	SetQueryAttributes(trace.SpanFromContext(ctx), stats)
	l.next.Done(ctx, stats)
}
