package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

// FileSource loads a model from a YAML file on disk.
type FileSource struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration
	opts     []pml.Option
}

// NewFileSource creates a new file-based model source.
func NewFileSource(path string, logger *slog.Logger, opts ...pml.Option) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:     path,
		logger:   logger,
		debounce: DefaultDebounce,
		opts:     append([]pml.Option{pml.WithLogger(logger)}, opts...),
	}
}

// WithDebounce sets the quiet period the watcher waits for before reloading.
func (s *FileSource) WithDebounce(d time.Duration) *FileSource {
	s.debounce = d
	return s
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.path }

// Load parses and compiles the model file.
func (s *FileSource) Load(ctx context.Context) (*model.Model, []*pmlErrors.Error, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m, warnings, err := pml.Load(s.path, s.opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load model %q: %w", s.path, err)
	}

	s.logger.Debug("loaded model from source",
		"path", s.path,
		"version", m.Version(),
		"warnings", len(warnings),
	)
	return m, warnings, nil
}

// Watch sends an event with the recompiled model after every burst of
// changes to the file. The channel is closed once ctx is done.
func (s *FileSource) Watch(ctx context.Context) (<-chan Event, error) {
	w, err := newFileWatcher(s.path, s.debounce, s.logger)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 1)
	go func() {
		defer close(events)
		err := w.run(ctx, func() {
			s.logger.Info("reloading model", "path", s.path)
			m, warnings, err := s.Load(ctx)
			select {
			case events <- Event{Model: m, Warnings: warnings, Err: err, Time: time.Now()}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			s.logger.Error("model file watcher stopped", "path", s.path, "error", err)
		}
	}()
	return events, nil
}
