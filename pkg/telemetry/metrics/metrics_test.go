package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ofirbed/DataTaggingLibrary/pkg/config"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
	"github.com/ofirbed/DataTaggingLibrary/pkg/query"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "metrics",
		DurationBuckets: []float64{0.001, 0.01, 0.1, 1},
	}
}

const testModel = `metadata:
  title: metrics
  version: "1"
space:
  root: Top
  slots:
    - name: Top
      consists_of: [A]
    - {name: A, one_of: [a0, a1]}
graph:
  - id: q
    ask:
      text: which one?
      answers:
        - answer: first
          do:
            - set: {A: a0}
        - answer: second
          do:
            - set: {A: a1}
  - end
`

func loadModel(t *testing.T) *model.Model {
	t.Helper()
	m, _, err := pml.LoadBytes([]byte(testModel), "memory://metrics")
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	return m
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	registry := prometheus.NewRegistry()

	c := NewCollector(cfg, registry)
	if c.Registry() != registry {
		t.Error("collector registry not set correctly")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q, want default", cfg.Namespace)
	}
	if len(cfg.DurationBuckets) == 0 {
		t.Error("duration buckets not defaulted")
	}
	if NewCollector(testConfig(), nil).Registry() == nil {
		t.Error("nil registry not replaced")
	}
}

func TestCollector_RunListener(t *testing.T) {
	m := loadModel(t)
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	ctx := context.Background()

	accepted, err := runtime.New(m, runtime.WithListener(c.RunListener()))
	if err != nil {
		t.Fatalf("runtime.New() error = %v", err)
	}
	if err := accepted.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := accepted.Answer(ctx, "second"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	failed, err := runtime.New(m, runtime.WithListener(c.RunListener()))
	if err != nil {
		t.Fatalf("runtime.New() error = %v", err)
	}
	if err := failed.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := failed.Answer(ctx, "third"); err == nil {
		t.Fatal("Answer() with unknown answer succeeded")
	}

	src := m.Source()
	rm := c.runMetrics
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"started", testutil.ToFloat64(rm.startedTotal.WithLabelValues(src)), 2},
		{"accepted", testutil.ToFloat64(rm.finishedTotal.WithLabelValues(src, "accepted")), 1},
		{"error", testutil.ToFloat64(rm.finishedTotal.WithLabelValues(src, "error")), 1},
		{"questions", testutil.ToFloat64(rm.questions.WithLabelValues(src)), 2},
		{"ask visits", testutil.ToFloat64(rm.visitsTotal.WithLabelValues(src, "ask")), 2},
		{"set visits", testutil.ToFloat64(rm.visitsTotal.WithLabelValues(src, "set")), 1},
		{"unknown answers", testutil.ToFloat64(rm.errorsTotal.WithLabelValues(src, ErrorKindUnknownAnswer)), 1},
	}
	for _, tt := range checks {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollector_QueryListener(t *testing.T) {
	m := loadModel(t)
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	res := m.Space().LookupValue([]string{"A"}, "a1")
	if res.Kind != policyspace.Success {
		t.Fatalf("LookupValue() = %v", res.Kind)
	}

	var matches int
	next := query.ListenerFuncs{OnMatchFound: func(context.Context, query.Trace) { matches++ }}
	engine := query.New(m)
	if _, err := engine.Run(context.Background(), res.Value, c.QueryListener(m.Source(), query.MatchContains, next)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if matches != 1 {
		t.Errorf("wrapped listener saw %d matches, want 1", matches)
	}

	src := m.Source()
	qm := c.queryMetrics
	if got := testutil.ToFloat64(qm.queriesTotal.WithLabelValues(src, "contains")); got != 1 {
		t.Errorf("queries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(qm.pathsTotal.WithLabelValues(src, "match")); got != 1 {
		t.Errorf("match paths = %v, want 1", got)
	}
	if got := testutil.ToFloat64(qm.pathsTotal.WithLabelValues(src, "non_match")); got != 1 {
		t.Errorf("non-match paths = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(qm.duration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestCollector_ModelMetrics(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.RecordCompile("a.yaml", 5*time.Millisecond, 2, 0)
	c.RecordCompile("a.yaml", time.Millisecond, 0, 3)
	c.RecordReload("a.yaml", true)
	c.RecordReload("a.yaml", false)

	mm := c.modelMetrics
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"successful compiles", testutil.ToFloat64(mm.compilesTotal.WithLabelValues("a.yaml", "success")), 1},
		{"failed compiles", testutil.ToFloat64(mm.compilesTotal.WithLabelValues("a.yaml", "failure")), 1},
		{"warnings", testutil.ToFloat64(mm.diagnosticsTotal.WithLabelValues("a.yaml", "warning")), 2},
		{"errors", testutil.ToFloat64(mm.diagnosticsTotal.WithLabelValues("a.yaml", "error")), 3},
		{"reloads", testutil.ToFloat64(mm.reloadsTotal.WithLabelValues("a.yaml", "success")), 1},
		{"failed reloads", testutil.ToFloat64(mm.reloadsTotal.WithLabelValues("a.yaml", "failure")), 1},
	}
	for _, tt := range checks {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.RecordRunStarted("m")
	c.RecordNodeVisit("m", "ask")
	c.RecordRunFinished("m", "accepted")
	c.RecordRunError("m", ErrorKindOther)
	c.RecordQuery("m", "contains", query.Stats{Matches: 1})
	c.RecordQueryError("m")
	c.RecordCompile("m", time.Millisecond, 0, 0)
	c.RecordReload("m", true)

	count, err := testutil.GatherAndCount(c.Registry())
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("disabled collector recorded %d series", count)
	}
}

func TestCollector_Cardinality(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	c.cardinalityLimiter = NewCardinalityLimiter(2)

	for i := 0; i < 4; i++ {
		c.RecordRunStarted(fmt.Sprintf("model-%d", i))
	}
	if got := testutil.ToFloat64(c.runMetrics.startedTotal.WithLabelValues(OtherLabel)); got != 2 {
		t.Errorf("other = %v, want 2", got)
	}
	if got := c.cardinalityLimiter.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestCardinalityLimiter_Allow(t *testing.T) {
	cl := NewCardinalityLimiter(2)
	steps := []struct {
		label string
		want  bool
	}{
		{"a", true},
		{"b", true},
		{"c", false},
		{"a", true},
	}
	for _, s := range steps {
		if got := cl.Allow(s.label); got != s.want {
			t.Errorf("Allow(%q) = %v, want %v", s.label, got, s.want)
		}
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&runtime.UnknownAnswerError{NodeID: "q", Answer: "x"}, ErrorKindUnknownAnswer},
		{fmt.Errorf("wrapped: %w", &runtime.StaleSnapshotError{Field: "currentNode"}), ErrorKindStaleSnapshot},
		{&runtime.RuntimeError{Message: "boom"}, ErrorKindRuntime},
		{context.Canceled, ErrorKindCanceled},
		{errors.New("other"), ErrorKindOther},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	c.RecordRunStarted("m")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `test_metrics_runs_started_total{model="m"} 1`) {
		t.Errorf("body missing run counter:\n%s", body)
	}
}

func BenchmarkCollector_RecordNodeVisit(b *testing.B) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RecordNodeVisit("memory://bench", "ask")
	}
}
