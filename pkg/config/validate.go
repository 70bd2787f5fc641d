package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a problem with a single configuration key. Field is the
// dotted YAML path, e.g. "runtime.max_steps".
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError carries every FieldError found by Validate.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "configuration validation failed"
	case 1:
		return "configuration validation failed: " + e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, fe := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", fe.Error())
	}
	return sb.String()
}

// problems accumulates field errors in the order the checks run.
type problems []FieldError

func (p *problems) add(field, format string, args ...any) {
	*p = append(*p, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (p *problems) nonNegative(field string, negative bool) {
	if negative {
		p.add(field, "cannot be negative")
	}
}

// oneOf records an error unless value is one of allowed.
func (p *problems) oneOf(field, what, value string, allowed ...string) {
	if slices.Contains(allowed, value) {
		return
	}
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = "'" + a + "'"
	}
	p.add(field, "invalid %s %q: must be one of %s", what, value, strings.Join(quoted, ", "))
}

// Validate checks cfg and returns a ValidationError listing every problem,
// or nil.
func Validate(cfg *Config) error {
	var p problems
	p.model(&cfg.Model)
	p.runtime(&cfg.Runtime)
	p.query(&cfg.Query)
	p.storage(&cfg.Storage)
	p.telemetry(&cfg.Telemetry)
	if len(p) == 0 {
		return nil
	}
	return ValidationError{Errors: p}
}

func (p *problems) model(cfg *ModelConfig) {
	if cfg.Path == "" {
		p.add("model.path", "model path is required")
	}
	p.nonNegative("model.debounce", cfg.Debounce < 0)
	if cfg.Git.Repository == "" {
		return
	}

	git := &cfg.Git
	if git.Path == "" {
		p.add("model.git.path", "model path in the repository is required")
	}
	p.nonNegative("model.git.depth", git.Depth < 0)
	p.nonNegative("model.git.poll_interval", git.PollInterval < 0)
	p.nonNegative("model.git.timeout", git.Timeout < 0)
	switch git.Auth.Type {
	case "", "none":
	case "token":
		if git.Auth.Token == "" {
			p.add("model.git.auth.token", "token is required for token auth")
		}
	case "ssh":
		if git.Auth.SSHKeyPath == "" {
			p.add("model.git.auth.ssh_key_path", "key path is required for ssh auth")
		}
	default:
		p.oneOf("model.git.auth.type", "auth type", git.Auth.Type, "none", "token", "ssh")
	}
}

func (p *problems) runtime(cfg *RuntimeConfig) {
	if cfg.MaxSteps <= 0 {
		p.add("runtime.max_steps", "max steps must be positive")
	}
	if cfg.MaxCallDepth <= 0 {
		p.add("runtime.max_call_depth", "max call depth must be positive")
	}
}

func (p *problems) query(cfg *QueryConfig) {
	if cfg.MaxDepth <= 0 {
		p.add("query.max_depth", "max depth must be positive")
	}
	p.oneOf("query.match_mode", "match mode", cfg.MatchMode, "contains", "at-least")
	p.nonNegative("query.timeout", cfg.Timeout < 0)
}

func (p *problems) storage(cfg *StorageConfig) {
	p.oneOf("storage.backend", "backend", cfg.Backend, "sqlite", "memory")
	if cfg.Backend == "sqlite" {
		db := &cfg.SQLite
		if db.Path == "" {
			p.add("storage.sqlite.path", "sqlite path is required when backend is 'sqlite'")
		}
		p.nonNegative("storage.sqlite.max_open_conns", db.MaxOpenConns < 0)
		if db.MaxIdleConns > db.MaxOpenConns {
			p.add("storage.sqlite.max_idle_conns", "cannot exceed max_open_conns")
		}
		p.nonNegative("storage.sqlite.busy_timeout", db.BusyTimeout < 0)
	}

	r := &cfg.Retention
	p.nonNegative("storage.retention.max_age", r.MaxAge < 0)
	p.nonNegative("storage.retention.max_snapshots", r.MaxSnapshots < 0)
	if r.Schedule != "" {
		if _, err := cron.ParseStandard(r.Schedule); err != nil {
			p.add("storage.retention.schedule", "invalid cron expression: %v", err)
		}
	}
}

func (p *problems) telemetry(cfg *TelemetryConfig) {
	if (cfg.Metrics.Enabled || cfg.Health.Enabled) && cfg.ListenAddress == "" {
		p.add("telemetry.listen_address", "listen address is required when metrics or health checks are enabled")
	}
	p.nonNegative("telemetry.health.check_timeout", cfg.Health.CheckTimeout < 0)
	p.oneOf("telemetry.logging.level", "logging level", cfg.Logging.Level, "debug", "info", "warn", "error")
	p.oneOf("telemetry.logging.format", "logging format", cfg.Logging.Format, "json", "text", "console")

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		p.add("telemetry.metrics.path", "metrics path must start with /")
	}
	if !strictlyIncreasing(cfg.Metrics.DurationBuckets) {
		p.add("telemetry.metrics.duration_buckets", "buckets must be strictly increasing")
	}

	t := &cfg.Tracing
	if t.Enabled {
		if t.Endpoint == "" {
			p.add("telemetry.tracing.endpoint", "tracing endpoint is required when tracing is enabled")
		}
		p.oneOf("telemetry.tracing.exporter", "exporter", t.Exporter, "otlp")
	}
	p.oneOf("telemetry.tracing.sampler", "sampler", t.Sampler, "always", "never", "ratio")
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		p.add("telemetry.tracing.sample_ratio", "sample ratio must be between 0.0 and 1.0")
	}
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}
