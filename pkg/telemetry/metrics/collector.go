package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ofirbed/DataTaggingLibrary/pkg/config"
	"github.com/ofirbed/DataTaggingLibrary/pkg/query"
)

// OtherLabel replaces label values past the cardinality limit.
const OtherLabel = "other"

// Collector owns the Prometheus metrics of the policy model tools.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	runMetrics   *RunMetrics
	queryMetrics *QueryMetrics
	modelMetrics *ModelMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector registers the run, query and model metrics on registry, or
// on a fresh registry when it is nil. Empty namespace and bucket settings
// in cfg are filled with the defaults.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		runMetrics:         NewRunMetrics(cfg, registry),
		queryMetrics:       NewQueryMetrics(cfg, registry),
		modelMetrics:       NewModelMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

func (c *Collector) Enabled() bool                  { return c.config.Enabled }
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// label returns the model label to record under. ok is false when the
// collector is disabled.
func (c *Collector) label(model string) (label string, ok bool) {
	switch {
	case !c.config.Enabled:
		return "", false
	case c.cardinalityLimiter.Allow(model):
		return model, true
	default:
		return OtherLabel, true
	}
}

func (c *Collector) RecordRunStarted(model string) {
	if m, ok := c.label(model); ok {
		c.runMetrics.RecordStarted(m)
	}
}

// RecordNodeVisit records a run entering a node of the given kind.
func (c *Collector) RecordNodeVisit(model, kind string) {
	if m, ok := c.label(model); ok {
		c.runMetrics.RecordNodeVisit(m, kind)
	}
}

// RecordRunFinished records a run reaching accepted or rejected.
func (c *Collector) RecordRunFinished(model, status string) {
	if m, ok := c.label(model); ok {
		c.runMetrics.RecordFinished(m, status)
	}
}

// RecordRunError records a failed run. kind is one of the ErrorKind
// results.
func (c *Collector) RecordRunError(model, kind string) {
	if m, ok := c.label(model); ok {
		c.runMetrics.RecordError(m, kind)
	}
}

func (c *Collector) RecordQuery(model, mode string, stats query.Stats) {
	if m, ok := c.label(model); ok {
		c.queryMetrics.RecordQuery(m, mode, stats)
	}
}

func (c *Collector) RecordQueryError(model string) {
	if m, ok := c.label(model); ok {
		c.queryMetrics.RecordError(m)
	}
}

// RecordCompile records one compilation of a model and the number of
// warnings and errors it reported.
func (c *Collector) RecordCompile(model string, duration time.Duration, warnings, errors int) {
	if m, ok := c.label(model); ok {
		c.modelMetrics.RecordCompile(m, duration, warnings, errors)
	}
}

// RecordReload records a reload triggered by a change to the model source.
func (c *Collector) RecordReload(model string, success bool) {
	if m, ok := c.label(model); ok {
		c.modelMetrics.RecordReload(m, success)
	}
}

// CardinalityLimiter admits the first limit distinct label values and
// rejects every later one.
type CardinalityLimiter struct {
	limit int
	mu    sync.Mutex
	seen  map[string]struct{}
}

func NewCardinalityLimiter(limit int) *CardinalityLimiter {
	return &CardinalityLimiter{limit: limit, seen: make(map[string]struct{})}
}

// Allow reports whether label is, or can still become, one of the
// admitted values.
func (cl *CardinalityLimiter) Allow(label string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if _, ok := cl.seen[label]; ok {
		return true
	}
	if len(cl.seen) >= cl.limit {
		return false
	}
	cl.seen[label] = struct{}{}
	return true
}

// Count is the number of admitted values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.seen)
}
