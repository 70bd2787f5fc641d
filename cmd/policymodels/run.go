package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/logging"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/tracing"
)

// persistFlags are shared by run and resume.
type persistFlags struct {
	answers     []string
	snapshotOut string
	save        bool
	format      string
}

var runFlags struct {
	persistFlags
	runID string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a run and apply scripted answers",
	Long: `Start a run of the model and answer its questions in order.

The run advances until it needs an answer that was not given or reaches a
terminal state. The pending question or the outcome is printed along with
the value accumulated so far.

Examples:
  # Show the first question
  policymodels run --model model.yaml

  # Answer two questions and store the snapshot for a later resume
  policymodels run --model model.yaml --answer yes --answer no --save

  # Write the snapshot to a file instead
  policymodels run --model model.yaml --answer yes --snapshot-out run.json`,
	RunE: startRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addPersistFlags(runCmd, &runFlags.persistFlags)
	runCmd.Flags().StringVar(&runFlags.runID, "run-id", "", "run id (a random UUID when empty)")
}

func addPersistFlags(cmd *cobra.Command, f *persistFlags) {
	cmd.Flags().StringArrayVarP(&f.answers, "answer", "a", nil, "answer to the next question (repeatable)")
	cmd.Flags().StringVar(&f.snapshotOut, "snapshot-out", "", "write the run snapshot to this file")
	cmd.Flags().BoolVar(&f.save, "save", false, "save the run snapshot in the snapshot store")
	cmd.Flags().StringVar(&f.format, "format", "text", "output format: text, json, yaml")
}

func startRun(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(runFlags.format)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	m, _, err := app.loadModel(ctx)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	ev, err := runtime.New(m, app.evaluatorOptions(runFlags.runID)...)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	ctx = logging.WithRunID(logging.WithModel(ctx, m.Source()), ev.RunID())
	ctx, span := app.tracer.Start(ctx, tracing.SpanRunStart, trace.WithAttributes(tracing.RunAttributes(ev.Info())...))
	ctx = logging.WithTraceID(ctx, tracing.TraceID(ctx))
	err = ev.Start(ctx)
	tracing.End(span, err)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	if err := app.answerAll(ctx, ev, runFlags.answers); err != nil {
		return cli.NewCommandError("run", err)
	}
	return app.finishRun(ctx, cmd, ev, runFlags.persistFlags, runFlags.save, format)
}

// answerAll applies answers in order. Each answer gets its own span.
func (a *application) answerAll(ctx context.Context, ev *runtime.Evaluator, answers []string) error {
	for i, answer := range answers {
		if _, ok := ev.Question(); !ok {
			return fmt.Errorf("answer %d (%q): run is %s: %w", i+1, answer, ev.Status(), runtime.ErrNotAwaitingAnswer)
		}
		actx, span := a.tracer.Start(ctx, tracing.SpanRunAnswer, trace.WithAttributes(
			tracing.AttrRunID.String(ev.RunID()),
			tracing.AttrNodeID.String(ev.CurrentNodeID()),
			tracing.AttrRunAnswer.String(answer),
		))
		err := ev.Answer(actx, answer)
		tracing.End(span, err)
		if err != nil {
			return fmt.Errorf("answer %d: %w", i+1, err)
		}
	}
	return nil
}

// finishRun persists the snapshot as requested and prints the result.
func (a *application) finishRun(ctx context.Context, cmd *cobra.Command, ev *runtime.Evaluator, f persistFlags, save bool, format cli.OutputFormat) error {
	snap := ev.Snapshot()
	if f.snapshotOut != "" {
		data, err := snap.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(f.snapshotOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
	}

	result := newRunResult(ev)
	if save {
		store, err := a.openStore()
		if err != nil {
			return err
		}
		if err := store.Save(ctx, ev.RunID(), snap); err != nil {
			return cli.NewCommandError(cmd.Name(), err)
		}
		result.Saved = true
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)
}
