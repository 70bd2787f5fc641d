// Package tracing provides OpenTelemetry tracing for model compilation,
// interview runs and queries.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(version))
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, tracing.SpanRunStart)
//	eval, err := runtime.New(m, runtime.WithListener(tracing.RunListener()))
//	err = eval.Start(ctx)
//	tracing.End(span, err)
//
// RunListener and QueryListener annotate the span carried by the callback
// context with node visits, outcomes and query counters. They never start
// spans of their own.
//
// # Trace Context
//
// A command started by a traced job joins its trace through the
// TRACEPARENT and TRACESTATE environment variables:
//
//	ctx = tracing.FromEnvironment(ctx)
//
// # Sampling Strategies
//
//   - always: Sample all traces
//   - never: Sample no traces
//   - ratio: Sample a percentage of traces
//
// Samplers are parent based, so a trace joined from the environment keeps
// its sampling decision.
//
// # Exporters
//
// Spans are exported over OTLP gRPC:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    exporter: otlp
//	    endpoint: localhost:4317
//	    otlp:
//	      insecure: true
//	      timeout: 10s
package tracing
