package tracing

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ofirbed/DataTaggingLibrary/pkg/config"
)

const instrumentationName = "github.com/ofirbed/DataTaggingLibrary"

// Tracer starts the spans of compile, run and query operations. A
// disabled Tracer hands out non-recording spans.
type Tracer struct {
	trace.Tracer
	provider *sdktrace.TracerProvider
}

// Option configures New.
type Option func(*options)

type options struct {
	version  string
	exporter sdktrace.SpanExporter
	global   bool
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithExporter exports spans synchronously to exp instead of batching them
// to the configured OTLP endpoint.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exp }
}

// WithoutGlobal leaves the otel global provider and propagator untouched.
func WithoutGlobal() Option {
	return func(o *options) { o.global = false }
}

// New builds a Tracer from cfg. Unless WithoutGlobal is given, an enabled
// tracer also becomes the otel global provider with W3C trace context
// and baggage propagation. Shutdown flushes pending spans.
func New(cfg *config.TracingConfig, opts ...Option) (*Tracer, error) {
	if cfg == nil {
		return nil, errors.New("tracing config is nil")
	}
	if !cfg.Enabled {
		return &Tracer{Tracer: noop.NewTracerProvider().Tracer(instrumentationName)}, nil
	}

	o := options{version: "dev", global: true}
	for _, opt := range opts {
		opt(&o)
	}
	tp, err := newProvider(cfg, o)
	if err != nil {
		return nil, err
	}
	if o.global {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		))
	}
	return &Tracer{Tracer: tp.Tracer(instrumentationName), provider: tp}, nil
}

func newProvider(cfg *config.TracingConfig, o options) (*sdktrace.TracerProvider, error) {
	sampler, err := samplerFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	var export sdktrace.TracerProviderOption
	if o.exporter != nil {
		export = sdktrace.WithSyncer(o.exporter)
	} else {
		if cfg.Exporter != "" && cfg.Exporter != "otlp" {
			return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
		}
		exp, err := otlpExporter(cfg)
		if err != nil {
			return nil, err
		}
		export = sdktrace.WithBatcher(exp)
	}

	name := cfg.ServiceName
	if name == "" {
		name = config.DefaultTracingServiceName
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(name), semconv.ServiceVersion(o.version)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return sdktrace.NewTracerProvider(export, sdktrace.WithResource(res), sdktrace.WithSampler(sampler)), nil
}

// otlpExporter exports over gRPC. The connection is dialed on first use.
func otlpExporter(cfg *config.TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.OTLP.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	if cfg.OTLP.Timeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(cfg.OTLP.Timeout))
	}
	exp, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exp, nil
}

// Shutdown flushes pending spans. It is a no-op for a disabled tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

func (t *Tracer) Enabled() bool { return t.provider != nil }

// TraceID returns the hex trace id of the span in ctx, or "" when ctx
// carries no sampled or remote span.
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// End records err on span, sets its status and ends it. It is meant for
// defer with a named error result:
//
//	ctx, span := tracer.Start(ctx, SpanCompile)
//	defer func() { tracing.End(span, err) }()
func End(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
	} else {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.message", err.Error()))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// recordError is End without ending the span.
func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
