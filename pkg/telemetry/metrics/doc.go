// Package metrics provides Prometheus metrics for policy model runs,
// queries and model compilation.
//
// # Metrics Categories
//
//   - Run Metrics: runs started and finished, node visits, questions, errors
//   - Query Metrics: query count, duration and path outcomes
//   - Model Metrics: compile count and duration, diagnostics, reloads
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//
//	// Observe runs
//	eval, err := runtime.New(m, runtime.WithListener(collector.RunListener()))
//
//	// Observe queries
//	stats, err := engine.Run(ctx, target, collector.QueryListener(m.Source(), next))
//
//	// Expose the registry
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Every Record method is a no-op when metrics are disabled.
//
// # Cardinality
//
// Metrics are labelled by model source. Past a fixed number of distinct
// label sets, new models are recorded under the "other" label.
package metrics
