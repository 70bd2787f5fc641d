package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for evaluator run ids.
	RunIDKey contextKey = "run_id"
	// ModelKey is the context key for model sources.
	ModelKey contextKey = "model"
	// NodeKey is the context key for decision graph node ids.
	NodeKey contextKey = "node"
	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"
)

// WithRunID adds a run id to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run id from the context.
func GetRunID(ctx context.Context) string {
	return stringValue(ctx, RunIDKey)
}

// WithModel adds a model source to the context.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// GetModel retrieves the model source from the context.
func GetModel(ctx context.Context) string {
	return stringValue(ctx, ModelKey)
}

// WithNode adds a node id to the context.
func WithNode(ctx context.Context, node string) context.Context {
	return context.WithValue(ctx, NodeKey, node)
}

// GetNode retrieves the node id from the context.
func GetNode(ctx context.Context) string {
	return stringValue(ctx, NodeKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields returns the context's log fields as key-value pairs
// suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range []contextKey{RunIDKey, ModelKey, NodeKey, TraceIDKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}

// contextHandler adds the context's log fields to every record.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := extractContextFields(ctx)
	if len(fields) > 0 {
		r = r.Clone()
	}
	for i := 0; i+1 < len(fields); i += 2 {
		r.AddAttrs(slog.String(fields[i].(string), fields[i+1].(string)))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
