package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change to a model
// file before it is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// fileWatcher reports changes to a single model file. The parent
// directory is watched rather than the file itself so that editors and
// deploy tools that replace the file by renaming over it are noticed.
type fileWatcher struct {
	fs     *fsnotify.Watcher
	path   string
	quiet  time.Duration
	logger *slog.Logger
}

func newFileWatcher(path string, quiet time.Duration, logger *slog.Logger) (*fileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if quiet <= 0 {
		quiet = DefaultDebounce
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	return &fileWatcher{fs: fs, path: filepath.Clean(path), quiet: quiet, logger: logger}, nil
}

// run calls changed once per burst of writes to the file, after the
// burst has been quiet for w.quiet. It blocks until ctx is done and
// releases the fsnotify watcher on return.
func (w *fileWatcher) run(ctx context.Context, changed func()) error {
	defer w.fs.Close()

	w.logger.Info("model watcher started", "path", w.path, "debounce_ms", w.quiet.Milliseconds())

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("model watcher stopped", "path", w.path)
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return errors.New("fsnotify events channel closed")
			}
			if ev.Op == fsnotify.Chmod || filepath.Clean(ev.Name) != w.path {
				continue
			}
			w.logger.Debug("model file event", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.quiet)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.quiet)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("fsnotify errors channel closed")
			}
			w.logger.Error("model watcher error", "path", w.path, "error", err)
		}
	}
}
