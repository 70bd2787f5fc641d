package main

import (
	"bytes"
	"context"
	"io"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/config"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model/source"
)

const testModel = "testdata/model.yaml"

// newTestApp installs an application for testModel with an in-memory
// snapshot store.
func newTestApp(t *testing.T, opts ...func(*config.Config)) *application {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Model.Path = testModel
	cfg.Storage.Backend = "memory"
	cfg.Storage.Retention.Schedule = ""
	for _, opt := range opts {
		opt(cfg)
	}

	a, err := newApplication(cfg, io.Discard)
	if err != nil {
		t.Fatalf("newApplication() error = %v", err)
	}
	app = a
	t.Cleanup(func() {
		if err := a.Close(context.Background()); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		app = nil
	})
	return a
}

// execute calls fn the way cobra would and returns what it printed.
func execute(cmd *cobra.Command, fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetContext(context.Background())
	err := fn(cmd, args)
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	Version, GitCommit = "0.2.0-test", "abc123"
	defer func() { Version, GitCommit = origVersion, origCommit }()

	tests := []struct {
		format string
		want   []string
	}{
		{format: "text", want: []string{"policymodels 0.2.0-test", "Git Commit: abc123", runtime.Version()}},
		{format: "json", want: []string{`"version": "0.2.0-test"`, `"git_commit": "abc123"`}},
		{format: "yaml", want: []string{"version: 0.2.0-test", "git_commit: abc123"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			saved := versionFormat
			defer func() { versionFormat = saved }()
			versionFormat = tt.format

			out, err := execute(versionCmd, versionCmd.RunE)
			if err != nil {
				t.Fatalf("version error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("version output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	for shell := range completionShells {
		out, err := execute(completionCmd, completionCmd.RunE, shell)
		if err != nil {
			t.Fatalf("completion %s error = %v", shell, err)
		}
		if !strings.Contains(out, "policymodels") {
			t.Errorf("completion %s output does not mention the binary", shell)
		}
	}
	if err := completionCmd.Args(completionCmd, []string{"tcsh"}); err == nil {
		t.Error("completion tcsh accepted")
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"compile", "completion", "loc-export", "query", "resume", "run", "serve", "snapshots", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("rootCmd.Find(%q) = %v, %v", name, cmd, err)
		}
	}
}

func TestSkipSetup(t *testing.T) {
	for _, cmd := range []*cobra.Command{versionCmd, completionCmd} {
		if err := cmd.PersistentPreRunE(cmd, nil); err != nil {
			t.Errorf("%s PersistentPreRunE() error = %v", cmd.Name(), err)
		}
		if err := cmd.PersistentPostRunE(cmd, nil); err != nil {
			t.Errorf("%s PersistentPostRunE() error = %v", cmd.Name(), err)
		}
	}
}

func TestModelSource(t *testing.T) {
	a := newTestApp(t)
	src, err := a.modelSource()
	if err != nil {
		t.Fatalf("modelSource() error = %v", err)
	}
	if _, ok := src.(*source.FileSource); !ok || src.Name() != testModel {
		t.Errorf("modelSource() = %T %q, want the model file", src, src.Name())
	}

	a = newTestApp(t, func(cfg *config.Config) {
		cfg.Model.Git = config.GitConfig{
			Repository: "https://example.com/models.git",
			Branch:     "main",
			Path:       "model.yaml",
			LocalPath:  t.TempDir(),
		}
	})
	src, err = a.modelSource()
	if err != nil {
		t.Fatalf("modelSource() error = %v", err)
	}
	if _, ok := src.(*source.GitSource); !ok {
		t.Errorf("modelSource() = %T, want *source.GitSource", src)
	}

	a = newTestApp(t, func(cfg *config.Config) {
		cfg.Model.Git = config.GitConfig{Repository: "https://example.com/models.git", Branch: "main"}
	})
	if _, err := a.modelSource(); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("modelSource() without a path: err = %v, want config error", err)
	}
}
