package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml"
)

func modelYAML(version string) []byte {
	return []byte(fmt.Sprintf(`metadata:
  title: watched
  version: %q
space:
  root: Top
  slots:
    - name: Top
      consists_of: [A]
    - name: A
      one_of: [a0, a1]
graph:
  - set: {A: a1}
  - end
`, version))
}

func testModel(t *testing.T, version string) *model.Model {
	t.Helper()
	m, _, err := pml.LoadBytes(modelYAML(version), "memory://test")
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	return m
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestManager_MemorySource(t *testing.T) {
	src := NewMemorySource(testModel(t, "1"))
	mgr := NewManager(src, nil)

	if _, err := mgr.Model(); !errors.Is(err, ErrNoModel) {
		t.Errorf("Model() before load error = %v, want ErrNoModel", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := mgr.Current().Version(); got != "1" {
		t.Fatalf("Version() = %q, want 1", got)
	}

	var changes, failures atomic.Int32
	mgr.OnChange(func(*model.Model) { changes.Add(1) })
	mgr.OnError(func(error) { failures.Add(1) })

	done := make(chan error, 1)
	go func() { done <- mgr.Watch(ctx) }()
	// Watch registers with the source asynchronously.
	time.Sleep(20 * time.Millisecond)

	src.Fail(errors.New("broken model"))
	if !waitFor(t, time.Second, func() bool { return mgr.Status().LastError != nil }) {
		t.Fatal("failed reload not recorded")
	}
	if got := mgr.Current().Version(); got != "1" {
		t.Errorf("Version() after failed reload = %q, want 1", got)
	}

	src.Set(testModel(t, "2"))
	if !waitFor(t, time.Second, func() bool { return mgr.Current().Version() == "2" }) {
		t.Fatal("reload not applied")
	}
	st := mgr.Status()
	if st.Reloads != 1 || st.LastError != nil || st.Source != "memory" {
		t.Errorf("Status() = %+v", st)
	}
	if changes.Load() != 1 {
		t.Errorf("OnChange calls = %d, want 1", changes.Load())
	}
	if failures.Load() != 1 {
		t.Errorf("OnError calls = %d, want 1", failures.Load())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Watch() did not return after cancel")
	}
}

func TestFileSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, modelYAML("3"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, _, err := NewFileSource(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Version() != "3" || m.Source() != path {
		t.Errorf("model = %s from %s", m.Version(), m.Source())
	}

	if _, _, err := NewFileSource(filepath.Join(t.TempDir(), "missing.yaml"), nil).Load(context.Background()); err == nil {
		t.Error("Load() of a missing file succeeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewFileSource(path, nil).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() with cancelled context error = %v", err)
	}
}

func TestManager_FileReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, modelYAML("1"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path, nil).WithDebounce(20 * time.Millisecond)
	mgr := NewManager(src, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	go func() { _ = mgr.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("space: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return mgr.Status().LastError != nil }) {
		t.Fatal("broken model not reported")
	}
	if got := mgr.Current().Version(); got != "1" {
		t.Errorf("Version() = %q after a broken reload, want 1", got)
	}

	if err := os.WriteFile(path, modelYAML("2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return mgr.Current().Version() == "2" }) {
		t.Errorf("Version() = %q, want 2 after rewrite", mgr.Current().Version())
	}
}

func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")
	if err := os.WriteFile(path, modelYAML("1"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := newFileWatcher(path, 30*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx, func() { calls.Add(1) }) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d after writing another file, want 0", n)
	}

	for i := 2; i <= 5; i++ {
		if err := os.WriteFile(path, modelYAML(strconv.Itoa(i)), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !waitFor(t, time.Second, func() bool { return calls.Load() > 0 }) {
		t.Fatal("no change reported for the watched file")
	}
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d for one burst of writes, want 1", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestNewFileWatcher_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := newFileWatcher(filepath.Join(dir, "missing.yaml"), 0, nil); err == nil {
		t.Error("newFileWatcher(missing) succeeded")
	}
	if _, err := newFileWatcher(dir, 0, nil); err == nil {
		t.Error("newFileWatcher(dir) succeeded")
	}
}
