package query

import (
	"context"

	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// Listener receives query results. Callbacks fire in depth-first order,
// following the declared order of answers and consider options.
type Listener interface {
	Started(ctx context.Context, target *policyspace.CompoundValue)
	MatchFound(ctx context.Context, trace Trace)
	NonMatchFound(ctx context.Context, trace Trace)
	Rejected(ctx context.Context, trace Trace)
	Done(ctx context.Context, stats Stats)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are
// skipped.
type ListenerFuncs struct {
	OnStarted       func(ctx context.Context, target *policyspace.CompoundValue)
	OnMatchFound    func(ctx context.Context, trace Trace)
	OnNonMatchFound func(ctx context.Context, trace Trace)
	OnRejected      func(ctx context.Context, trace Trace)
	OnDone          func(ctx context.Context, stats Stats)
}

func (l ListenerFuncs) Started(ctx context.Context, target *policyspace.CompoundValue) {
	if l.OnStarted != nil {
		l.OnStarted(ctx, target)
	}
}

func (l ListenerFuncs) MatchFound(ctx context.Context, trace Trace) {
	if l.OnMatchFound != nil {
		l.OnMatchFound(ctx, trace)
	}
}

func (l ListenerFuncs) NonMatchFound(ctx context.Context, trace Trace) {
	if l.OnNonMatchFound != nil {
		l.OnNonMatchFound(ctx, trace)
	}
}

func (l ListenerFuncs) Rejected(ctx context.Context, trace Trace) {
	if l.OnRejected != nil {
		l.OnRejected(ctx, trace)
	}
}

func (l ListenerFuncs) Done(ctx context.Context, stats Stats) {
	if l.OnDone != nil {
		l.OnDone(ctx, stats)
	}
}

// Result holds every trace of a query, as gathered by Collect.
type Result struct {
	Matches    []Trace
	NonMatches []Trace
	Rejections []Trace
	Stats      Stats
}

// collector is the Listener behind Collect.
type collector struct {
	res *Result
}

func (c collector) Started(context.Context, *policyspace.CompoundValue) {}
func (c collector) MatchFound(_ context.Context, t Trace)               { c.res.Matches = append(c.res.Matches, t) }
func (c collector) NonMatchFound(_ context.Context, t Trace)            { c.res.NonMatches = append(c.res.NonMatches, t) }
func (c collector) Rejected(_ context.Context, t Trace)                 { c.res.Rejections = append(c.res.Rejections, t) }
func (c collector) Done(_ context.Context, s Stats)                     { c.res.Stats = s }
