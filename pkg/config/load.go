package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "POLICYMODELS_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention POLICYMODELS_SECTION_FIELD (e.g., POLICYMODELS_MODEL_PATH).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from the defaults.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	applyGitDefaults(&cfg.Model.Git)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean and duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Model overrides
	envString("MODEL_PATH", &cfg.Model.Path)
	envBool("MODEL_WATCH", &cfg.Model.Watch)
	envDuration("MODEL_DEBOUNCE", &cfg.Model.Debounce)
	envString("MODEL_GIT_REPOSITORY", &cfg.Model.Git.Repository)
	envString("MODEL_GIT_BRANCH", &cfg.Model.Git.Branch)
	envString("MODEL_GIT_PATH", &cfg.Model.Git.Path)
	envString("MODEL_GIT_AUTH_TOKEN", &cfg.Model.Git.Auth.Token)

	// Runtime overrides
	envInt("RUNTIME_MAX_STEPS", &cfg.Runtime.MaxSteps)
	envInt("RUNTIME_MAX_CALL_DEPTH", &cfg.Runtime.MaxCallDepth)

	// Query overrides
	envInt("QUERY_MAX_DEPTH", &cfg.Query.MaxDepth)
	envString("QUERY_MATCH_MODE", &cfg.Query.MatchMode)
	envDuration("QUERY_TIMEOUT", &cfg.Query.Timeout)

	// Storage overrides
	envString("STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	envBool("STORAGE_SQLITE_WAL_MODE", &cfg.Storage.SQLite.WALMode)
	envDuration("STORAGE_RETENTION_MAX_AGE", &cfg.Storage.Retention.MaxAge)
	envString("STORAGE_RETENTION_SCHEDULE", &cfg.Storage.Retention.Schedule)
	if val := os.Getenv(EnvPrefix + "STORAGE_RETENTION_MAX_SNAPSHOTS"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Storage.Retention.MaxSnapshots = n
		}
	}

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_LISTEN_ADDRESS", &cfg.Telemetry.ListenAddress)
	envBool("TELEMETRY_HEALTH_ENABLED", &cfg.Telemetry.Health.Enabled)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envString("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
