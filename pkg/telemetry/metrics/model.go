package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ofirbed/DataTaggingLibrary/pkg/config"
)

// ModelMetrics tracks model compilation and reloads.
//
// Metrics:
//   - policymodels_compiles_total: Compilations by result
//   - policymodels_compile_duration_seconds: Compilation duration
//   - policymodels_compile_diagnostics_total: Diagnostics by severity
//   - policymodels_model_reloads_total: Reloads by result
type ModelMetrics struct {
	compilesTotal    *prometheus.CounterVec
	compileDuration  *prometheus.HistogramVec
	diagnosticsTotal *prometheus.CounterVec
	reloadsTotal     *prometheus.CounterVec
}

// NewModelMetrics creates and registers model metrics with the provided registry.
func NewModelMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ModelMetrics {
	mm := &ModelMetrics{
		compilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compiles_total",
				Help:      "Total number of model compilations",
			},
			[]string{"model", "result"},
		),
		compileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compile_duration_seconds",
				Help:      "Duration of model compilation in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"model"},
		),
		diagnosticsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "compile_diagnostics_total",
				Help:      "Total number of compile diagnostics by severity",
			},
			[]string{"model", "severity"},
		),
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "model_reloads_total",
				Help:      "Total number of model reloads",
			},
			[]string{"model", "result"},
		),
	}

	registry.MustRegister(
		mm.compilesTotal,
		mm.compileDuration,
		mm.diagnosticsTotal,
		mm.reloadsTotal,
	)
	return mm
}

// RecordCompile records a compilation. A compilation with errors counts as
// failed.
func (mm *ModelMetrics) RecordCompile(model string, duration time.Duration, warnings, errors int) {
	result := "success"
	if errors > 0 {
		result = "failure"
	}
	mm.compilesTotal.WithLabelValues(model, result).Inc()
	mm.compileDuration.WithLabelValues(model).Observe(duration.Seconds())
	if warnings > 0 {
		mm.diagnosticsTotal.WithLabelValues(model, "warning").Add(float64(warnings))
	}
	if errors > 0 {
		mm.diagnosticsTotal.WithLabelValues(model, "error").Add(float64(errors))
	}
}

// RecordReload records a reload.
func (mm *ModelMetrics) RecordReload(model string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	mm.reloadsTotal.WithLabelValues(model, result).Inc()
}
