package metrics

import (
	"context"
	"errors"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
	"github.com/ofirbed/DataTaggingLibrary/pkg/query"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
)

// Error kinds used by RecordRunError.
const (
	ErrorKindUnknownAnswer = "unknown_answer"
	ErrorKindStaleSnapshot = "stale_snapshot"
	ErrorKindRuntime       = "runtime"
	ErrorKindCanceled      = "canceled"
	ErrorKindOther         = "other"
)

// ErrorKind classifies a run error for the error kind label.
func ErrorKind(err error) string {
	var unknown *runtime.UnknownAnswerError
	var stale *runtime.StaleSnapshotError
	var rt *runtime.RuntimeError
	switch {
	case errors.As(err, &unknown):
		return ErrorKindUnknownAnswer
	case errors.As(err, &stale):
		return ErrorKindStaleSnapshot
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCanceled
	case errors.As(err, &rt):
		return ErrorKindRuntime
	default:
		return ErrorKindOther
	}
}

// RunListener returns a runtime.Listener that records run metrics.
func (c *Collector) RunListener() runtime.Listener {
	return runListener{c: c}
}

type runListener struct {
	c *Collector
}

func (l runListener) RunStarted(_ context.Context, run runtime.RunInfo) {
	l.c.RecordRunStarted(run.ModelSource)
}

func (l runListener) NodeEntered(_ context.Context, run runtime.RunInfo, node decisiongraph.Node) {
	l.c.RecordNodeVisit(run.ModelSource, node.Kind())
}

func (l runListener) RunTerminated(_ context.Context, run runtime.RunInfo, outcome runtime.Outcome) {
	l.c.RecordRunFinished(run.ModelSource, string(outcome.Status))
}

func (l runListener) RunError(_ context.Context, run runtime.RunInfo, err error) {
	l.c.RecordRunError(run.ModelSource, ErrorKind(err))
}

// QueryListener returns a query.Listener that records the query's stats
// when it finishes and forwards every callback to next. next may be nil.
//
// Queries aborted by an error never reach Done; record those with
// RecordQueryError.
func (c *Collector) QueryListener(model string, mode query.MatchMode, next query.Listener) query.Listener {
	if next == nil {
		next = query.ListenerFuncs{}
	}
	return &queryListener{c: c, model: model, mode: mode.String(), next: next}
}

type queryListener struct {
	c     *Collector
	model string
	mode  string
	next  query.Listener
}

func (l *queryListener) Started(ctx context.Context, target *policyspace.CompoundValue) {
	l.next.Started(ctx, target)
}

func (l *queryListener) MatchFound(ctx context.Context, trace query.Trace) {
	l.next.MatchFound(ctx, trace)
}

func (l *queryListener) NonMatchFound(ctx context.Context, trace query.Trace) {
	l.next.NonMatchFound(ctx, trace)
}

func (l *queryListener) Rejected(ctx context.Context, trace query.Trace) {
	l.next.Rejected(ctx, trace)
}

func (l *queryListener) Done(ctx context.Context, stats query.Stats) {
	l.c.RecordQuery(l.model, l.mode, stats)
	l.next.Done(ctx, stats)
}
