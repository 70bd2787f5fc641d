package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model/source"
	"github.com/ofirbed/DataTaggingLibrary/pkg/storage/retention"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/health"
)

const shutdownTimeout = 10 * time.Second

var serveFlags struct {
	listen string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operations endpoint",
	Long: `Keep the model loaded and expose health checks and metrics over HTTP.

With model.watch enabled the model is recompiled whenever its file changes,
or when a new commit touches it if the model comes from model.git. A failed
reload keeps the last good model. The retention schedule in
storage.retention.schedule prunes the snapshot store in the background.

Endpoints:
  /health    liveness
  /ready     readiness (model loaded, snapshot store reachable)
  /version   build information
  /metrics   Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "override telemetry.listen_address")
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	addr := app.cfg.Telemetry.ListenAddress
	if serveFlags.listen != "" {
		addr = serveFlags.listen
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	return app.serveOps(ctx, cmd.OutOrStdout(), ln)
}

// serveOps serves the operations endpoint on ln until ctx is done.
func (a *application) serveOps(ctx context.Context, out io.Writer, ln net.Listener) error {
	cfg := a.cfg

	src, err := a.modelSource()
	if err != nil {
		ln.Close()
		return err
	}
	manager := source.NewManager(src, a.logger.Slog())
	manager.OnChange(func(m *model.Model) {
		a.metrics.RecordReload(src.Name(), true)
	})
	manager.OnError(func(err error) {
		a.metrics.RecordReload(src.Name(), false)
	})
	if err := manager.Load(ctx); err != nil {
		ln.Close()
		return err
	}
	if cfg.Model.Watch {
		go func() {
			if err := manager.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("model watcher stopped", "error", err)
			}
		}()
	}

	store, err := a.openStore()
	if err != nil {
		ln.Close()
		return err
	}
	scheduler := retention.NewPruner(store, a.retentionConfig()).Scheduler()
	if err := scheduler.Start(ctx); err != nil {
		a.logger.Warn("failed to start retention scheduler", "error", err)
	} else {
		defer scheduler.Stop()
		if next, ok := scheduler.NextRun(); ok {
			a.logger.Debug("retention scheduler started", "next_run", next)
		}
	}

	mux := http.NewServeMux()
	if cfg.Telemetry.Metrics.Enabled {
		mux.Handle(cfg.Telemetry.Metrics.Path, a.metrics.Handler())
	}
	if cfg.Telemetry.Health.Enabled {
		checker := health.New(cfg.Telemetry.Health.CheckTimeout)
		checker.RegisterCheck("model", health.ModelCheck(manager))
		checker.RegisterCheck("snapshot_store", health.StoreCheck(store))
		health.Register(mux, checker, health.VersionInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		})
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("starting operations endpoint", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	fmt.Fprintf(out, "✓ Model %s loaded (version %s)\n", src.Name(), manager.Current().Version())
	fmt.Fprintf(out, "✓ Listening on %s\n", ln.Addr())

	select {
	case err := <-errChan:
		return cli.NewCommandError("serve", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown failed", "error", err)
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}
