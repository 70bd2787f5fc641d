package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/config"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model/source"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
	"github.com/ofirbed/DataTaggingLibrary/pkg/storage"
	"github.com/ofirbed/DataTaggingLibrary/pkg/storage/retention"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/logging"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/metrics"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/tracing"
)

// application holds what every command shares: configuration, telemetry
// and the lazily opened snapshot store.
type application struct {
	cfg     *config.Config
	logger  *logging.Logger
	tracer  *tracing.Tracer
	metrics *metrics.Collector
	store   storage.Store
	source  source.Source
}

// app is set up by the root command before any subcommand runs.
var app *application

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := *loaded

	// Apply flag overrides
	if modelPath != "" {
		cfg.Model.Path = modelPath
		cfg.Model.Git = config.GitConfig{}
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}

	a, err := newApplication(&cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	app = a

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(tracing.FromEnvironment(ctx))
	return nil
}

func newApplication(cfg *config.Config, logOutput io.Writer, opts ...tracing.Option) (*application, error) {
	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    logOutput,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())

	opts = append([]tracing.Option{tracing.WithServiceVersion(Version)}, opts...)
	tracer, err := tracing.New(&cfg.Telemetry.Tracing, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return &application{
		cfg:     cfg,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry()),
	}, nil
}

// Close closes the snapshot store and flushes pending spans.
func (a *application) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	errs = append(errs, a.tracer.Shutdown(ctx))
	return errors.Join(errs...)
}

// modelSource returns the configured model source: a git repository when
// model.git.repository is set, the model file otherwise.
func (a *application) modelSource() (source.Source, error) {
	if a.source != nil {
		return a.source, nil
	}
	git := a.cfg.Model.Git
	if git.Repository == "" {
		a.source = source.NewFileSource(a.cfg.Model.Path, a.logger.Slog()).WithDebounce(a.cfg.Model.Debounce)
		return a.source, nil
	}
	src, err := source.NewGitSource(source.GitConfig{
		Repository:   git.Repository,
		Branch:       git.Branch,
		Path:         git.Path,
		LocalPath:    git.LocalPath,
		Depth:        git.Depth,
		PollInterval: git.PollInterval,
		Timeout:      git.Timeout,
		Auth: source.GitAuth{
			Type:             git.Auth.Type,
			Token:            git.Auth.Token,
			SSHKeyPath:       git.Auth.SSHKeyPath,
			SSHKeyPassphrase: git.Auth.SSHKeyPassphrase,
		},
	}, a.logger.Slog())
	if err != nil {
		return nil, cli.NewConfigError("model.git", err.Error())
	}
	a.source = src
	return src, nil
}

// loadModel compiles the model from the configured source.
func (a *application) loadModel(ctx context.Context) (*model.Model, []*pmlErrors.Error, error) {
	src, err := a.modelSource()
	if err != nil {
		return nil, nil, err
	}
	name := src.Name()
	ctx, span := a.tracer.Start(ctx, tracing.SpanCompile,
		trace.WithAttributes(tracing.AttrModelSource.String(name)))

	start := time.Now()
	m, warnings, err := src.Load(ctx)
	errCount := errorCount(err)
	a.metrics.RecordCompile(name, time.Since(start), len(warnings), errCount)
	tracing.SetCompileAttributes(span, len(warnings), errCount)
	tracing.End(span, err)
	if err != nil {
		return nil, nil, err
	}

	a.logger.DebugContext(ctx, "model compiled",
		"source", name,
		"version", m.Version(),
		"warnings", len(warnings),
	)
	return m, warnings, nil
}

// errorCount counts the diagnostics of a failed compile.
func errorCount(err error) int {
	if err == nil {
		return 0
	}
	var list *pmlErrors.ErrorList
	if errors.As(err, &list) {
		return len(list.Errors) - len(list.Warnings())
	}
	return 1
}

// evaluatorOptions wires the configured limits and every run listener.
func (a *application) evaluatorOptions(runID string) []runtime.Option {
	return []runtime.Option{
		runtime.WithConfig(&runtime.Config{
			MaxSteps:     a.cfg.Runtime.MaxSteps,
			MaxCallDepth: a.cfg.Runtime.MaxCallDepth,
		}),
		runtime.WithLogger(a.logger.Slog()),
		runtime.WithRunID(runID),
		runtime.WithListener(runtime.NewLoggingListener(a.logger.Slog())),
		runtime.WithListener(a.metrics.RunListener()),
		runtime.WithListener(tracing.RunListener()),
	}
}

// openStore opens the configured snapshot store once per process.
func (a *application) openStore() (storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	opts := []storage.Option{storage.WithLogger(a.logger.Slog())}

	switch a.cfg.Storage.Backend {
	case "memory":
		a.store = storage.NewMemoryStore(opts...)
	case "sqlite":
		sc := a.cfg.Storage.SQLite
		if sc.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
			}
		}
		s, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
			Path:         sc.Path,
			MaxOpenConns: sc.MaxOpenConns,
			MaxIdleConns: sc.MaxIdleConns,
			WALMode:      sc.WALMode,
			BusyTimeout:  sc.BusyTimeout,
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		a.store = s
	default:
		return nil, cli.NewConfigError("storage.backend", fmt.Sprintf("unsupported backend %q", a.cfg.Storage.Backend))
	}
	return a.store, nil
}

func (a *application) retentionConfig() *retention.Config {
	r := a.cfg.Storage.Retention
	return &retention.Config{
		MaxAge:           r.MaxAge,
		MaxSnapshots:     r.MaxSnapshots,
		Schedule:         r.Schedule,
		IncludeSuspended: r.IncludeSuspended,
	}
}
