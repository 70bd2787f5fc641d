package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

// ErrNoModel is returned when the manager has not loaded a model yet.
var ErrNoModel = errors.New("no model loaded")

// Manager holds the current model of a source and swaps in reloaded
// versions. A failed reload keeps the last good model.
type Manager struct {
	src    Source
	logger *slog.Logger

	mu       sync.RWMutex
	current  *model.Model
	warnings []*pmlErrors.Error
	loadedAt time.Time
	lastErr  error
	reloads  int
	onChange []func(*model.Model)
	onError  []func(error)
}

// Status describes the manager's state.
type Status struct {
	Source    string
	Version   string
	LoadedAt  time.Time
	Reloads   int
	LastError error
}

// NewManager creates a manager for src.
func NewManager(src Source, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{src: src, logger: logger}
}

// OnChange registers fn to be called with every newly installed model.
func (m *Manager) OnChange(fn func(*model.Model)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// OnError registers fn to be called with every failed load or reload.
func (m *Manager) OnError(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = append(m.onError, fn)
}

// fail records err and notifies the error callbacks.
func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.lastErr = err
	callbacks := append(([]func(error))(nil), m.onError...)
	m.mu.Unlock()
	for _, fn := range callbacks {
		fn(err)
	}
}

// Load loads the model from the source and installs it.
func (m *Manager) Load(ctx context.Context) error {
	startTime := time.Now()
	mdl, warnings, err := m.src.Load(ctx)
	if err != nil {
		m.fail(err)
		m.logger.Error("failed to load model",
			"source", m.src.Name(),
			"error", err,
			"duration_ms", time.Since(startTime).Milliseconds(),
		)
		return err
	}
	m.install(mdl, warnings)
	return nil
}

// Watch applies the source's reload events until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	events, err := m.src.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", m.src.Name(), err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				m.fail(ev.Err)
				m.logger.Error("model reload failed, keeping previous model",
					"source", m.src.Name(),
					"error", ev.Err,
				)
				continue
			}
			m.install(ev.Model, ev.Warnings)
		}
	}
}

func (m *Manager) install(mdl *model.Model, warnings []*pmlErrors.Error) {
	m.mu.Lock()
	first := m.current == nil
	m.current = mdl
	m.warnings = warnings
	m.loadedAt = time.Now()
	m.lastErr = nil
	if !first {
		m.reloads++
	}
	callbacks := append(([]func(*model.Model))(nil), m.onChange...)
	m.mu.Unlock()

	for _, w := range warnings {
		m.logger.Warn("model warning", "source", m.src.Name(), "node", w.NodeID, "message", w.Message)
	}
	m.logger.Info("model installed",
		"source", m.src.Name(),
		"version", mdl.Version(),
		"reload", !first,
	)
	for _, fn := range callbacks {
		fn(mdl)
	}
}

// Current returns the installed model, or nil before the first load.
func (m *Manager) Current() *model.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Model returns the installed model or ErrNoModel.
func (m *Manager) Model() (*model.Model, error) {
	if mdl := m.Current(); mdl != nil {
		return mdl, nil
	}
	return nil, ErrNoModel
}

// Warnings returns the diagnostics of the installed model.
func (m *Manager) Warnings() []*pmlErrors.Error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*pmlErrors.Error(nil), m.warnings...)
}

// Status returns a description of the manager's state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Status{
		Source:    m.src.Name(),
		LoadedAt:  m.loadedAt,
		Reloads:   m.reloads,
		LastError: m.lastErr,
	}
	if m.current != nil {
		st.Version = m.current.Version()
	}
	return st
}
