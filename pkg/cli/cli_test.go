package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		err  *ConfigError
		want string
	}{
		{NewConfigError("--target", "missing '='"), "config error in --target: missing '='"},
		{NewConfigError("", "failed to load config"), "config error: failed to load config"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("run", underlying)

	if got, want := err.Error(), "command run failed: underlying error"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should see through CommandError")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"config", NewConfigError("x", "y"), ExitConfig},
		{"wrapped config", fmt.Errorf("setup: %w", NewConfigError("x", "y")), ExitConfig},
		{"command", NewCommandError("query", errors.New("boom")), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type result struct {
	Status string   `json:"status" yaml:"status"`
	Paths  []string `json:"paths" yaml:"paths"`
}

type textResult struct{ result }

func (r textResult) Text(w io.Writer) error {
	_, err := fmt.Fprintf(w, "status: %s (%d paths)\n", r.Status, len(r.Paths))
	return err
}

func TestFormatters(t *testing.T) {
	data := result{Status: "accepted", Paths: []string{"a", "b"}}
	tests := []struct {
		format OutputFormat
		data   any
		want   string
	}{
		{FormatText, "plain", "plain\n"},
		{FormatText, textResult{data}, "status: accepted (2 paths)\n"},
		{FormatJSON, data, "{\n  \"status\": \"accepted\",\n  \"paths\": [\n    \"a\",\n    \"b\"\n  ]\n}\n"},
		{FormatYAML, data, "status: accepted\npaths:\n  - a\n  - b\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewFormatter(tt.format).FormatTo(&buf, tt.data); err != nil {
				t.Fatalf("FormatTo() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("FormatTo() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestSetupSignalHandler(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SetupSignalHandler(parent)
	defer stop()

	select {
	case <-ctx.Done():
		t.Fatal("context canceled before any signal")
	default:
	}

	cancel()
	<-ctx.Done()
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Errorf("ctx.Err() = %v, want context.Canceled", ctx.Err())
	}
}
