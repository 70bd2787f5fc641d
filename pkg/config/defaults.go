package config

import "time"

// Default values for configuration fields.
const (
	// Model defaults
	DefaultModelPath       = "model.yaml"
	DefaultModelDebounce   = 100 * time.Millisecond
	DefaultGitBranch       = "main"
	DefaultGitLocalPath    = "data/model-repo"
	DefaultGitPollInterval = 30 * time.Second
	DefaultGitTimeout      = 30 * time.Second
	DefaultGitAuthType     = "none"

	// Runtime defaults
	DefaultRuntimeMaxSteps     = 100000
	DefaultRuntimeMaxCallDepth = 1000

	// Query defaults
	DefaultQueryMaxDepth  = 10000
	DefaultQueryMatchMode = "contains"

	// Storage defaults
	DefaultStorageBackend            = "sqlite"
	DefaultSQLitePath                = "data/snapshots.db"
	DefaultSQLiteMaxOpenConns        = 10
	DefaultSQLiteMaxIdleConns        = 5
	DefaultSQLiteWALMode             = true
	DefaultSQLiteBusyTimeout         = 5 * time.Second
	DefaultRetentionMaxAge           = 30 * 24 * time.Hour
	DefaultRetentionSchedule         = "0 3 * * *"
	DefaultRetentionMaxSnapshots     = int64(0)
	DefaultRetentionIncludeSuspended = false

	// Telemetry defaults
	DefaultTelemetryListenAddress = "127.0.0.1:9090"
	DefaultHealthCheckTimeout     = 5 * time.Second
	DefaultLoggingLevel           = "info"
	DefaultLoggingFormat          = "text"
	DefaultMetricsPath            = "/metrics"
	DefaultMetricsNamespace       = "policymodels"
	DefaultTracingSampler         = "always"
	DefaultTracingSampleRatio     = 1.0
	DefaultTracingExporter        = "otlp"
	DefaultTracingEndpoint        = "localhost:4317"
	DefaultTracingServiceName     = "policymodels"
	DefaultTracingOTLPTimeout     = 10 * time.Second
)

// DefaultDurationBuckets are the histogram buckets for compile and query
// durations, in seconds.
var DefaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// NewDefaultConfig returns a configuration with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Model defaults
	if cfg.Model.Path == "" {
		cfg.Model.Path = DefaultModelPath
	}
	if cfg.Model.Debounce == 0 {
		cfg.Model.Debounce = DefaultModelDebounce
	}
	applyGitDefaults(&cfg.Model.Git)

	// Runtime defaults
	if cfg.Runtime.MaxSteps == 0 {
		cfg.Runtime.MaxSteps = DefaultRuntimeMaxSteps
	}
	if cfg.Runtime.MaxCallDepth == 0 {
		cfg.Runtime.MaxCallDepth = DefaultRuntimeMaxCallDepth
	}

	// Query defaults
	if cfg.Query.MaxDepth == 0 {
		cfg.Query.MaxDepth = DefaultQueryMaxDepth
	}
	if cfg.Query.MatchMode == "" {
		cfg.Query.MatchMode = DefaultQueryMatchMode
	}

	applyStorageDefaults(cfg)
	applyTelemetryDefaults(cfg)
}

func applyGitDefaults(git *GitConfig) {
	if git.Repository == "" {
		return
	}
	if git.Branch == "" {
		git.Branch = DefaultGitBranch
	}
	if git.LocalPath == "" {
		git.LocalPath = DefaultGitLocalPath
	}
	if git.PollInterval == 0 {
		git.PollInterval = DefaultGitPollInterval
	}
	if git.Timeout == 0 {
		git.Timeout = DefaultGitTimeout
	}
	if git.Auth.Type == "" {
		git.Auth.Type = DefaultGitAuthType
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}

	sqlite := &cfg.Storage.SQLite
	// An untouched sqlite section gets WAL on; an explicit path keeps
	// whatever the file said.
	if sqlite.Path == "" {
		sqlite.Path = DefaultSQLitePath
		if !sqlite.WALMode {
			sqlite.WALMode = DefaultSQLiteWALMode
		}
	}
	if sqlite.MaxOpenConns == 0 {
		sqlite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if sqlite.MaxIdleConns == 0 {
		sqlite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if sqlite.BusyTimeout == 0 {
		sqlite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	if cfg.Storage.Retention.MaxAge == 0 {
		cfg.Storage.Retention.MaxAge = DefaultRetentionMaxAge
	}
	if cfg.Storage.Retention.Schedule == "" {
		cfg.Storage.Retention.Schedule = DefaultRetentionSchedule
	}
}

func applyTelemetryDefaults(cfg *Config) {
	if cfg.Telemetry.ListenAddress == "" {
		cfg.Telemetry.ListenAddress = DefaultTelemetryListenAddress
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}

	logging := &cfg.Telemetry.Logging
	if logging.Level == "" {
		logging.Level = DefaultLoggingLevel
	}
	if logging.Format == "" {
		logging.Format = DefaultLoggingFormat
	}

	metrics := &cfg.Telemetry.Metrics
	if metrics.Path == "" {
		metrics.Path = DefaultMetricsPath
	}
	if metrics.Namespace == "" {
		metrics.Namespace = DefaultMetricsNamespace
	}
	if len(metrics.DurationBuckets) == 0 {
		metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	tracing := &cfg.Telemetry.Tracing
	if tracing.Sampler == "" {
		tracing.Sampler = DefaultTracingSampler
	}
	if tracing.SampleRatio == 0 {
		tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if tracing.Exporter == "" {
		tracing.Exporter = DefaultTracingExporter
	}
	if tracing.Endpoint == "" {
		tracing.Endpoint = DefaultTracingEndpoint
	}
	if tracing.ServiceName == "" {
		tracing.ServiceName = DefaultTracingServiceName
	}
	if tracing.OTLP.Timeout == 0 {
		tracing.OTLP.Timeout = DefaultTracingOTLPTimeout
	}
}
