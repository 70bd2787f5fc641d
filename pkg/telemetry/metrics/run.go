package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ofirbed/DataTaggingLibrary/pkg/config"
)

// RunMetrics tracks interview runs.
//
// Metrics:
//   - policymodels_runs_started_total: Runs started by model
//   - policymodels_runs_finished_total: Runs that reached a terminal status
//   - policymodels_node_visits_total: Nodes entered by model and node kind
//   - policymodels_questions_total: Questions asked by model
//   - policymodels_run_errors_total: Failed runs by model and error kind
type RunMetrics struct {
	startedTotal  *prometheus.CounterVec
	finishedTotal *prometheus.CounterVec
	visitsTotal   *prometheus.CounterVec
	questions     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		startedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_started_total",
				Help:      "Total number of runs started",
			},
			[]string{"model"},
		),
		finishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_finished_total",
				Help:      "Total number of runs that reached a terminal status",
			},
			[]string{"model", "status"},
		),
		visitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "node_visits_total",
				Help:      "Total number of decision graph nodes entered",
			},
			[]string{"model", "kind"},
		),
		questions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "questions_total",
				Help:      "Total number of questions asked",
			},
			[]string{"model"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_errors_total",
				Help:      "Total number of failed runs",
			},
			[]string{"model", "kind"},
		),
	}

	registry.MustRegister(
		rm.startedTotal,
		rm.finishedTotal,
		rm.visitsTotal,
		rm.questions,
		rm.errorsTotal,
	)
	return rm
}

// RecordStarted records a started run.
func (rm *RunMetrics) RecordStarted(model string) {
	rm.startedTotal.WithLabelValues(model).Inc()
}

// RecordNodeVisit records a node visit. Entering an ask node also counts
// as a question.
func (rm *RunMetrics) RecordNodeVisit(model, kind string) {
	rm.visitsTotal.WithLabelValues(model, kind).Inc()
	if kind == "ask" {
		rm.questions.WithLabelValues(model).Inc()
	}
}

// RecordFinished records a run reaching a terminal status.
func (rm *RunMetrics) RecordFinished(model, status string) {
	rm.finishedTotal.WithLabelValues(model, status).Inc()
}

// RecordError records a failed run.
func (rm *RunMetrics) RecordError(model, kind string) {
	rm.errorsTotal.WithLabelValues(model, kind).Inc()
	rm.finishedTotal.WithLabelValues(model, "error").Inc()
}
