package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ofirbed/DataTaggingLibrary/pkg/config"
	"github.com/ofirbed/DataTaggingLibrary/pkg/query"
)

// QueryMetrics tracks query engine runs.
//
// Metrics:
//   - policymodels_queries_total: Finished queries by model and match mode
//   - policymodels_query_duration_seconds: Query duration
//   - policymodels_query_paths_total: Explored paths by outcome
//   - policymodels_query_errors_total: Aborted queries
type QueryMetrics struct {
	queriesTotal *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	pathsTotal   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
}

// NewQueryMetrics creates and registers query metrics with the provided registry.
func NewQueryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *QueryMetrics {
	qm := &QueryMetrics{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "queries_total",
				Help:      "Total number of finished queries",
			},
			[]string{"model", "mode"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "query_duration_seconds",
				Help:      "Duration of queries in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"model"},
		),
		pathsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "query_paths_total",
				Help:      "Total number of explored paths by outcome",
			},
			[]string{"model", "outcome"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "query_errors_total",
				Help:      "Total number of aborted queries",
			},
			[]string{"model"},
		),
	}

	registry.MustRegister(
		qm.queriesTotal,
		qm.duration,
		qm.pathsTotal,
		qm.errorsTotal,
	)
	return qm
}

// RecordQuery records a finished query and the outcome of its paths.
func (qm *QueryMetrics) RecordQuery(model, mode string, stats query.Stats) {
	qm.queriesTotal.WithLabelValues(model, mode).Inc()
	qm.duration.WithLabelValues(model).Observe(stats.Duration.Seconds())
	qm.pathsTotal.WithLabelValues(model, "match").Add(float64(stats.Matches))
	qm.pathsTotal.WithLabelValues(model, "non_match").Add(float64(stats.NonMatches))
	qm.pathsTotal.WithLabelValues(model, "rejected").Add(float64(stats.Rejections))
}

// RecordError records an aborted query.
func (qm *QueryMetrics) RecordError(model string) {
	qm.errorsTotal.WithLabelValues(model).Inc()
}
