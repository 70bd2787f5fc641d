package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
	"github.com/ofirbed/DataTaggingLibrary/pkg/storage"
	"github.com/ofirbed/DataTaggingLibrary/pkg/storage/retention"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Manage stored run snapshots",
	Long: `Manage the run snapshots kept in the snapshot store.

Examples:
  # Runs still waiting for an answer
  policymodels snapshots list --status awaiting-answer

  # Inspect one run
  policymodels snapshots show 1f0c...

  # Apply the retention policy now
  policymodels snapshots prune --max-age 168h`,
}

var snapshotListFlags struct {
	modelSource string
	statuses    []string
	limit       int
	offset      int
	format      string
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, oldest update first",
	Args:  cobra.NoArgs,
	RunE:  listSnapshots,
}

var snapshotShowFlags struct {
	format string
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  showSnapshot,
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>...",
	Short: "Delete stored snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE:  deleteSnapshots,
}

var snapshotPruneFlags struct {
	maxAge           time.Duration
	maxSnapshots     int64
	includeSuspended bool
}

var snapshotPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots according to the retention policy",
	Long: `Delete snapshots according to the retention policy in storage.retention.

Only finished runs are pruned unless --include-suspended is given. Flags
override the configured limits for this invocation.`,
	Args: cobra.NoArgs,
	RunE: pruneSnapshots,
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.AddCommand(snapshotListCmd, snapshotShowCmd, snapshotDeleteCmd, snapshotPruneCmd)

	snapshotListCmd.Flags().StringVar(&snapshotListFlags.modelSource, "model-source", "", "only snapshots of this model source")
	snapshotListCmd.Flags().StringArrayVar(&snapshotListFlags.statuses, "status", nil, "only snapshots with this run status (repeatable)")
	snapshotListCmd.Flags().IntVar(&snapshotListFlags.limit, "limit", 0, "maximum number of snapshots")
	snapshotListCmd.Flags().IntVar(&snapshotListFlags.offset, "offset", 0, "snapshots to skip")
	snapshotListCmd.Flags().StringVar(&snapshotListFlags.format, "format", "text", "output format: text, json, yaml")

	snapshotShowCmd.Flags().StringVar(&snapshotShowFlags.format, "format", "json", "output format: json, yaml")

	snapshotPruneCmd.Flags().DurationVar(&snapshotPruneFlags.maxAge, "max-age", 0, "override storage.retention.max_age")
	snapshotPruneCmd.Flags().Int64Var(&snapshotPruneFlags.maxSnapshots, "max-snapshots", 0, "override storage.retention.max_snapshots")
	snapshotPruneCmd.Flags().BoolVar(&snapshotPruneFlags.includeSuspended, "include-suspended", false, "also prune runs waiting for an answer")
}

// SnapshotView is a stored snapshot with its bookkeeping times.
type SnapshotView struct {
	RunID     string            `json:"run_id" yaml:"run_id"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at"`
	Snapshot  *runtime.Snapshot `json:"snapshot" yaml:"snapshot"`
}

// SnapshotList is the output of snapshots list.
type SnapshotList []SnapshotView

func (l SnapshotList) Text(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTATUS\tMODEL\tVERSION\tNODE\tUPDATED")
	for _, v := range l {
		s := v.Snapshot
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.RunID, s.Status, s.ModelSource, s.ModelVersion, s.CurrentNode,
			v.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func newSnapshotView(rec *storage.Record) SnapshotView {
	return SnapshotView{
		RunID:     rec.RunID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Snapshot:  rec.Snapshot,
	}
}

func listSnapshots(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(snapshotListFlags.format)
	if err != nil {
		return err
	}
	filter := &storage.Filter{
		ModelSource: snapshotListFlags.modelSource,
		Limit:       snapshotListFlags.limit,
		Offset:      snapshotListFlags.offset,
	}
	for _, s := range snapshotListFlags.statuses {
		st, err := runtime.ParseStatus(s)
		if err != nil {
			return cli.NewConfigError("--status", err.Error())
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	store, err := app.openStore()
	if err != nil {
		return err
	}
	records, err := store.List(cmd.Context(), filter)
	if err != nil {
		return cli.NewCommandError("snapshots list", err)
	}
	out := make(SnapshotList, 0, len(records))
	for _, rec := range records {
		out = append(out, newSnapshotView(rec))
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), out)
}

func showSnapshot(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(snapshotShowFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatText {
		format = cli.FormatJSON
	}
	store, err := app.openStore()
	if err != nil {
		return err
	}
	rec, err := store.Load(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("snapshots show", err)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), newSnapshotView(rec))
}

func deleteSnapshots(cmd *cobra.Command, args []string) error {
	store, err := app.openStore()
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range args {
		if err := store.Delete(cmd.Context(), id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", id)
	}
	if len(errs) > 0 {
		return cli.NewCommandError("snapshots delete", errors.Join(errs...))
	}
	return nil
}

func pruneSnapshots(cmd *cobra.Command, args []string) error {
	cfg := app.retentionConfig()
	if snapshotPruneFlags.maxAge > 0 {
		cfg.MaxAge = snapshotPruneFlags.maxAge
	}
	if snapshotPruneFlags.maxSnapshots > 0 {
		cfg.MaxSnapshots = snapshotPruneFlags.maxSnapshots
	}
	if snapshotPruneFlags.includeSuspended {
		cfg.IncludeSuspended = true
	}

	store, err := app.openStore()
	if err != nil {
		return err
	}
	deleted, err := retention.NewPruner(store, cfg).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("snapshots prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d snapshot(s)\n", deleted)
	return nil
}
