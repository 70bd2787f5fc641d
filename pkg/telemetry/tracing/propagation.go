package tracing

import (
	"context"
	"encoding/hex"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Environment variables carrying a W3C trace context into a command, so a
// CLI invocation can join the trace of the job that started it.
const (
	EnvTraceParent = "TRACEPARENT"
	EnvTraceState  = "TRACESTATE"
)

// FromEnvironment returns ctx carrying the trace context found in the
// TRACEPARENT and TRACESTATE environment variables. An absent or malformed
// traceparent leaves ctx unchanged.
func FromEnvironment(ctx context.Context) context.Context {
	return extractEnv(ctx, otel.GetTextMapPropagator(), os.Getenv)
}

func extractEnv(ctx context.Context, p propagation.TextMapPropagator, getenv func(string) string) context.Context {
	carrier := propagation.MapCarrier{}
	parent := strings.TrimSpace(getenv(EnvTraceParent))
	if !ValidateTraceParent(parent) {
		return ctx
	}
	carrier.Set("traceparent", parent)
	if state := strings.TrimSpace(getenv(EnvTraceState)); state != "" {
		carrier.Set("tracestate", state)
	}
	return p.Extract(ctx, carrier)
}

// ValidateTraceParent reports whether s is a version-traceid-parentid-flags
// header with non-zero ids, e.g.
// 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01.
func ValidateTraceParent(s string) bool {
	version, rest, ok := strings.Cut(s, "-")
	if !ok || !hexByte(version) {
		return false
	}
	traceID, rest, ok := strings.Cut(rest, "-")
	if !ok {
		return false
	}
	spanID, flags, ok := strings.Cut(rest, "-")
	if !ok || !hexByte(flags) {
		return false
	}
	if _, err := trace.TraceIDFromHex(traceID); err != nil {
		return false
	}
	_, err := trace.SpanIDFromHex(spanID)
	return err == nil
}

func hexByte(s string) bool {
	if len(s) != 2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
