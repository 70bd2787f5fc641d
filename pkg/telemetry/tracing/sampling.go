package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ofirbed/DataTaggingLibrary/pkg/config"
)

// Sampler names accepted in telemetry.tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// samplerFor builds the root sampler for cfg. A run that continues a
// trace handed over through the environment keeps the parent's decision.
func samplerFor(cfg *config.TracingConfig) (sdktrace.Sampler, error) {
	var root sdktrace.Sampler
	switch cfg.Sampler {
	case "", SamplerAlways:
		root = sdktrace.AlwaysSample()
	case SamplerNever:
		root = sdktrace.NeverSample()
	case SamplerRatio:
		if r := cfg.SampleRatio; r < 0 || r > 1 {
			return nil, fmt.Errorf("sample ratio %v is outside [0, 1]", r)
		}
		root = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	default:
		return nil, fmt.Errorf("unknown sampler %q", cfg.Sampler)
	}
	return sdktrace.ParentBased(root), nil
}
