package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		fields []string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name: "missing model path",
			modify: func(c *Config) {
				c.Model.Path = ""
			},
			fields: []string{"model.path"},
		},
		{
			name: "git source",
			modify: func(c *Config) {
				c.Model.Git = GitConfig{Repository: "https://example.com/models.git", Path: "model.yaml", Auth: GitAuthConfig{Type: "token", Token: "t"}}
			},
		},
		{
			name: "git source without path or token",
			modify: func(c *Config) {
				c.Model.Git = GitConfig{Repository: "https://example.com/models.git", Depth: -1, Auth: GitAuthConfig{Type: "token"}}
			},
			fields: []string{"model.git.path", "model.git.depth", "model.git.auth.token"},
		},
		{
			name: "git auth type",
			modify: func(c *Config) {
				c.Model.Git = GitConfig{Repository: "git@example.com:models.git", Path: "model.yaml", Auth: GitAuthConfig{Type: "kerberos"}}
			},
			fields: []string{"model.git.auth.type"},
		},
		{
			name: "non-positive runtime limits",
			modify: func(c *Config) {
				c.Runtime.MaxSteps = 0
				c.Runtime.MaxCallDepth = -1
			},
			fields: []string{"runtime.max_steps", "runtime.max_call_depth"},
		},
		{
			name: "unknown match mode",
			modify: func(c *Config) {
				c.Query.MatchMode = "exact"
			},
			fields: []string{"query.match_mode"},
		},
		{
			name: "unknown backend",
			modify: func(c *Config) {
				c.Storage.Backend = "postgres"
			},
			fields: []string{"storage.backend"},
		},
		{
			name: "memory backend ignores sqlite path",
			modify: func(c *Config) {
				c.Storage.Backend = "memory"
				c.Storage.SQLite.Path = ""
			},
		},
		{
			name: "idle above open connections",
			modify: func(c *Config) {
				c.Storage.SQLite.MaxOpenConns = 2
				c.Storage.SQLite.MaxIdleConns = 3
			},
			fields: []string{"storage.sqlite.max_idle_conns"},
		},
		{
			name: "bad cron schedule",
			modify: func(c *Config) {
				c.Storage.Retention.Schedule = "every day"
			},
			fields: []string{"storage.retention.schedule"},
		},
		{
			name: "bad logging",
			modify: func(c *Config) {
				c.Telemetry.Logging.Level = "trace"
				c.Telemetry.Logging.Format = "xml"
			},
			fields: []string{"telemetry.logging.level", "telemetry.logging.format"},
		},
		{
			name: "metrics path without slash",
			modify: func(c *Config) {
				c.Telemetry.Metrics.Enabled = true
				c.Telemetry.Metrics.Path = "metrics"
			},
			fields: []string{"telemetry.metrics.path"},
		},
		{
			name: "unsorted buckets",
			modify: func(c *Config) {
				c.Telemetry.Metrics.DurationBuckets = []float64{1, 0.5}
			},
			fields: []string{"telemetry.metrics.duration_buckets"},
		},
		{
			name: "tracing without endpoint",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
				c.Telemetry.Tracing.Exporter = "zipkin"
			},
			fields: []string{"telemetry.tracing.endpoint", "telemetry.tracing.exporter"},
		},
		{
			name: "sample ratio out of range",
			modify: func(c *Config) {
				c.Telemetry.Tracing.SampleRatio = 1.5
			},
			fields: []string{"telemetry.tracing.sample_ratio"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			var got []string
			for _, fe := range verr.Errors {
				got = append(got, fe.Field)
			}
			if strings.Join(got, ",") != strings.Join(tt.fields, ",") {
				t.Errorf("failed fields = %v, want %v", got, tt.fields)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	one := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got, want := one.Error(), "configuration validation failed: a: bad"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	two := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if got := two.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("Error() = %q", got)
	}
}
