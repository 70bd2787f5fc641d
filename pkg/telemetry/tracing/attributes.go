package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ofirbed/DataTaggingLibrary/pkg/query"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
)

// Span names.
const (
	SpanCompile   = "policymodels.compile"
	SpanRunStart  = "policymodels.run.start"
	SpanRunAnswer = "policymodels.run.answer"
	SpanRunResume = "policymodels.run.resume"
	SpanQuery     = "policymodels.query"
)

// Attribute keys.
const (
	AttrModelSource  = attribute.Key("policymodels.model.source")
	AttrModelVersion = attribute.Key("policymodels.model.version")
	AttrRunID        = attribute.Key("policymodels.run.id")
	AttrRunStatus    = attribute.Key("policymodels.run.status")
	AttrRunReason    = attribute.Key("policymodels.run.reason")
	AttrRunAnswer    = attribute.Key("policymodels.run.answer")
	AttrNodeID       = attribute.Key("policymodels.node.id")
	AttrNodeKind     = attribute.Key("policymodels.node.kind")

	AttrQueryMode       = attribute.Key("policymodels.query.mode")
	AttrQueryVisits     = attribute.Key("policymodels.query.visits")
	AttrQueryMatches    = attribute.Key("policymodels.query.matches")
	AttrQueryNonMatches = attribute.Key("policymodels.query.non_matches")
	AttrQueryRejections = attribute.Key("policymodels.query.rejections")
	AttrQueryMaxDepth   = attribute.Key("policymodels.query.max_depth")
	AttrQueryTrace      = attribute.Key("policymodels.query.trace")

	AttrCompileWarnings = attribute.Key("policymodels.compile.warnings")
	AttrCompileErrors   = attribute.Key("policymodels.compile.errors")
)

// RunAttributes returns the attributes identifying a run.
func RunAttributes(run runtime.RunInfo) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrRunID.String(run.RunID),
		AttrModelSource.String(run.ModelSource),
		AttrModelVersion.String(run.ModelVersion),
	}
}

// SetRunAttributes adds the run's identity to the span.
func SetRunAttributes(span trace.Span, run runtime.RunInfo) {
	span.SetAttributes(RunAttributes(run)...)
}

// SetOutcomeAttributes adds a terminated run's status and reason.
func SetOutcomeAttributes(span trace.Span, outcome runtime.Outcome) {
	span.SetAttributes(AttrRunStatus.String(string(outcome.Status)))
	if outcome.Reason != "" {
		span.SetAttributes(AttrRunReason.String(outcome.Reason))
	}
}

// SetQueryAttributes adds query counters to the span.
func SetQueryAttributes(span trace.Span, stats query.Stats) {
	span.SetAttributes(
		AttrQueryVisits.Int(stats.Visits),
		AttrQueryMatches.Int(stats.Matches),
		AttrQueryNonMatches.Int(stats.NonMatches),
		AttrQueryRejections.Int(stats.Rejections),
		AttrQueryMaxDepth.Int(stats.MaxDepth),
	)
}

// SetCompileAttributes adds diagnostic counts to a compile span.
func SetCompileAttributes(span trace.Span, warnings, errors int) {
	span.SetAttributes(
		AttrCompileWarnings.Int(warnings),
		AttrCompileErrors.Int(errors),
	)
}
