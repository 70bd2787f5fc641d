package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
	"github.com/ofirbed/DataTaggingLibrary/pkg/storage"
)

// saveRuns stores one run per answer script, named by key.
func saveRuns(t *testing.T, runs map[string][]string) {
	t.Helper()
	saved := runFlags
	defer func() { runFlags = saved }()
	for _, id := range []string{"run-a", "run-b", "run-c"} {
		answers, ok := runs[id]
		if !ok {
			continue
		}
		runFlags = saved
		runFlags.runID = id
		runFlags.answers = answers
		runFlags.save = true
		runFlags.format = "json"
		if _, err := execute(runCmd, startRun); err != nil {
			t.Fatalf("run %s error = %v", id, err)
		}
	}
}

func TestSnapshots_List(t *testing.T) {
	newTestApp(t)
	saveRuns(t, map[string][]string{
		"run-a": {"no"},
		"run-b": {"yes"},
		"run-c": {"yes", "no", "no"},
	})
	saved := snapshotListFlags
	defer func() { snapshotListFlags = saved }()

	tests := []struct {
		name     string
		statuses []string
		limit    int
		want     []string
	}{
		{name: "all", want: []string{"run-a", "run-b", "run-c"}},
		{name: "suspended", statuses: []string{"awaiting-answer"}, want: []string{"run-b"}},
		{name: "terminal", statuses: []string{"accepted", "rejected"}, want: []string{"run-a", "run-c"}},
		{name: "limit", limit: 1, want: []string{"run-a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshotListFlags = saved
			snapshotListFlags.statuses = tt.statuses
			snapshotListFlags.limit = tt.limit
			snapshotListFlags.format = "json"

			out, err := execute(snapshotListCmd, listSnapshots)
			if err != nil {
				t.Fatalf("list error = %v", err)
			}
			var list SnapshotList
			if err := json.Unmarshal([]byte(out), &list); err != nil {
				t.Fatalf("invalid JSON output: %v\n%s", err, out)
			}
			var got []string
			for _, v := range list {
				got = append(got, v.RunID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("run ids = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("text", func(t *testing.T) {
		snapshotListFlags = saved
		snapshotListFlags.format = "text"
		out, err := execute(snapshotListCmd, listSnapshots)
		if err != nil {
			t.Fatalf("list error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 4 || !strings.HasPrefix(lines[0], "RUN ID") {
			t.Errorf("unexpected table:\n%s", out)
		}
	})

	t.Run("bad status", func(t *testing.T) {
		snapshotListFlags = saved
		snapshotListFlags.statuses = []string{"paused"}
		_, err := execute(snapshotListCmd, listSnapshots)
		if cli.ExitCode(err) != cli.ExitConfig {
			t.Errorf("err = %v, want config error", err)
		}
	})
}

func TestSnapshots_ShowDelete(t *testing.T) {
	a := newTestApp(t)
	saveRuns(t, map[string][]string{"run-a": {"yes"}})
	saved := snapshotShowFlags
	defer func() { snapshotShowFlags = saved }()

	snapshotShowFlags.format = "yaml"
	out, err := execute(snapshotShowCmd, showSnapshot, "run-a")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	for _, want := range []string{"run_id: run-a", "currentNode: med", "status: awaiting-answer"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(snapshotDeleteCmd, deleteSnapshots, "run-a", "run-x")
	if err == nil {
		t.Fatal("delete of a missing run succeeded")
	}
	if !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Errorf("error = %v, want ErrSnapshotNotFound", err)
	}
	if !strings.Contains(out, "✓ Deleted run-a") {
		t.Errorf("output = %q", out)
	}

	store, _ := a.openStore()
	if _, err := store.Load(context.Background(), "run-a"); !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Errorf("Load() after delete error = %v", err)
	}
	if _, err := execute(snapshotShowCmd, showSnapshot, "run-a"); !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Errorf("show after delete error = %v", err)
	}
}

func TestSnapshots_Prune(t *testing.T) {
	a := newTestApp(t)
	saveRuns(t, map[string][]string{
		"run-a": {"no"},
		"run-b": {"yes"},
		"run-c": {"yes", "no", "no"},
	})
	saved := snapshotPruneFlags
	defer func() { snapshotPruneFlags = saved }()

	// Only the finished runs count against the limit.
	snapshotPruneFlags.maxSnapshots = 1
	out, err := execute(snapshotPruneCmd, pruneSnapshots)
	if err != nil {
		t.Fatalf("prune error = %v", err)
	}
	if strings.TrimSpace(out) != "✓ Pruned 1 snapshot(s)" {
		t.Errorf("output = %q", out)
	}

	store, _ := a.openStore()
	records, err := store.List(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, rec := range records {
		got = append(got, rec.RunID)
	}
	if strings.Join(got, ",") != "run-b,run-c" {
		t.Errorf("remaining = %v, want [run-b run-c]", got)
	}

	snapshotPruneFlags.includeSuspended = true
	if _, err := execute(snapshotPruneCmd, pruneSnapshots); err != nil {
		t.Fatalf("prune error = %v", err)
	}
	n, err := store.Count(context.Background(), &storage.Filter{Statuses: []runtime.Status{runtime.StatusAwaitingAnswer}})
	if err != nil || n != 0 {
		t.Errorf("suspended runs left = %d, %v; want 0", n, err)
	}
}
