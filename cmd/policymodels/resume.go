package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/logging"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/metrics"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/tracing"
)

var resumeFlags struct {
	persistFlags
	snapshot string
	runID    string
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a run from a snapshot",
	Long: `Restore a suspended run and continue it with more answers.

The snapshot is read either from a file written by --snapshot-out or from
the snapshot store by run id. A snapshot taken against another version of
the model is refused. Runs loaded from the store are saved back after the
answers are applied.

Examples:
  # Continue a stored run
  policymodels resume --model model.yaml --run-id 1f0c... --answer no

  # Continue from a file and write the new state next to it
  policymodels resume --model model.yaml --snapshot run.json --answer no --snapshot-out run2.json`,
	RunE: resumeRun,
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	addPersistFlags(resumeCmd, &resumeFlags.persistFlags)
	resumeCmd.Flags().StringVar(&resumeFlags.snapshot, "snapshot", "", "snapshot file to resume from")
	resumeCmd.Flags().StringVar(&resumeFlags.runID, "run-id", "", "stored run to resume")
}

func resumeRun(cmd *cobra.Command, args []string) error {
	if (resumeFlags.snapshot == "") == (resumeFlags.runID == "") {
		return cli.NewConfigError("--snapshot", "exactly one of --snapshot or --run-id is required")
	}
	format, err := cli.ParseFormat(resumeFlags.format)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var snap *runtime.Snapshot
	if resumeFlags.snapshot != "" {
		data, err := os.ReadFile(resumeFlags.snapshot)
		if err != nil {
			return cli.NewCommandError("resume", err)
		}
		if snap, err = runtime.DecodeSnapshot(data); err != nil {
			return cli.NewCommandError("resume", err)
		}
	} else {
		store, err := app.openStore()
		if err != nil {
			return err
		}
		rec, err := store.Load(ctx, resumeFlags.runID)
		if err != nil {
			return cli.NewCommandError("resume", err)
		}
		snap = rec.Snapshot
	}

	m, _, err := app.loadModel(ctx)
	if err != nil {
		return cli.NewCommandError("resume", err)
	}

	ctx = logging.WithModel(ctx, m.Source())
	ctx, span := app.tracer.Start(ctx, tracing.SpanRunResume, trace.WithAttributes(
		tracing.AttrModelSource.String(m.Source()),
		tracing.AttrModelVersion.String(snap.ModelVersion),
	))
	ctx = logging.WithTraceID(ctx, tracing.TraceID(ctx))
	ev, err := runtime.Restore(m, snap, app.evaluatorOptions(resumeFlags.runID)...)
	if err == nil {
		tracing.SetRunAttributes(span, ev.Info())
	}
	tracing.End(span, err)
	if err != nil {
		app.metrics.RecordRunError(m.Source(), metrics.ErrorKind(err))
		return cli.NewCommandError("resume", err)
	}

	ctx = logging.WithRunID(ctx, ev.RunID())
	if err := app.answerAll(ctx, ev, resumeFlags.answers); err != nil {
		return cli.NewCommandError("resume", err)
	}
	save := resumeFlags.save || resumeFlags.runID != ""
	return app.finishRun(ctx, cmd, ev, resumeFlags.persistFlags, save, format)
}
