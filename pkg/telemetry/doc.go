// Package telemetry groups the observability packages of the policy model
// tools.
//
//   - logging: slog based structured logging with run context fields
//   - metrics: Prometheus collectors for runs, queries and model compiles
//   - tracing: OpenTelemetry spans for compile, run and query operations
//   - health: liveness and readiness endpoints for serve mode
//
// The runtime and query engines report through listeners; metrics and
// tracing each provide listener implementations that can be chained.
package telemetry
