package config

import "time"

// Config is the root configuration for the policy model tools.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Query     QueryConfig     `yaml:"query"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ModelConfig contains settings for loading the policy model.
type ModelConfig struct {
	// Path is the model file to load.
	Path string `yaml:"path"`

	// Watch reloads the model when the file changes.
	Watch bool `yaml:"watch"`

	// Debounce is the delay between a file change and the reload.
	Debounce time.Duration `yaml:"debounce"`

	// Git loads the model from a git repository instead of Path when
	// Git.Repository is set.
	Git GitConfig `yaml:"git"`
}

// GitConfig contains settings for a model kept in a git repository.
type GitConfig struct {
	Repository string `yaml:"repository"`
	Branch     string `yaml:"branch"`

	// Path is the model file relative to the repository root.
	Path string `yaml:"path"`

	// LocalPath is the clone directory.
	LocalPath string `yaml:"local_path"`

	// Depth makes a shallow clone when positive.
	Depth int `yaml:"depth"`

	// PollInterval is how often the branch is checked for new commits
	// when model.watch is on.
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`

	Auth GitAuthConfig `yaml:"auth"`
}

// GitAuthConfig contains git credentials.
type GitAuthConfig struct {
	// Type is "none", "token" or "ssh".
	Type             string `yaml:"type"`
	Token            string `yaml:"token"`
	SSHKeyPath       string `yaml:"ssh_key_path"`
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// RuntimeConfig contains evaluator limits.
type RuntimeConfig struct {
	// MaxSteps is the maximum number of nodes visited between two questions.
	MaxSteps int `yaml:"max_steps"`

	// MaxCallDepth is the maximum depth of the call stack.
	MaxCallDepth int `yaml:"max_call_depth"`
}

// QueryConfig contains query engine settings.
type QueryConfig struct {
	// MaxDepth is the maximum number of nodes on a single explored path.
	MaxDepth int `yaml:"max_depth"`

	// MatchMode decides when a terminal value matches the target:
	// "contains" or "at-least".
	MatchMode string `yaml:"match_mode"`

	// Timeout bounds a single query. 0 disables the timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig contains settings for the run snapshot store.
type StorageConfig struct {
	// Backend is the store implementation: "sqlite" or "memory".
	Backend string `yaml:"backend"`

	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite-specific settings.
type SQLiteConfig struct {
	Path         string        `yaml:"path"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	WALMode      bool          `yaml:"wal_mode"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains snapshot retention settings.
type RetentionConfig struct {
	// MaxAge is how long a snapshot is kept after its last save.
	MaxAge time.Duration `yaml:"max_age"`

	// MaxSnapshots caps the number of prunable snapshots. 0 means unlimited.
	MaxSnapshots int64 `yaml:"max_snapshots"`

	// Schedule is a cron expression for automatic pruning.
	Schedule string `yaml:"schedule"`

	// IncludeSuspended also prunes runs waiting for an answer.
	IncludeSuspended bool `yaml:"include_suspended"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	// ListenAddress is the address of the operations endpoint serving
	// metrics and health checks in serve mode.
	ListenAddress string `yaml:"listen_address"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health  HealthConfig  `yaml:"health"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path the metrics are served on.
	Path string `yaml:"path"`

	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets are the histogram buckets, in seconds, for
	// compile and query durations.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// HealthConfig contains health check settings.
type HealthConfig struct {
	Enabled bool `yaml:"enabled"`

	// CheckTimeout bounds each readiness check.
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampler is "always", "never" or "ratio".
	Sampler     string  `yaml:"sampler"`
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter is the span exporter. Only "otlp" is supported.
	Exporter    string     `yaml:"exporter"`
	Endpoint    string     `yaml:"endpoint"`
	ServiceName string     `yaml:"service_name"`
	OTLP        OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter settings.
type OTLPConfig struct {
	Insecure bool          `yaml:"insecure"`
	Timeout  time.Duration `yaml:"timeout"`
}
