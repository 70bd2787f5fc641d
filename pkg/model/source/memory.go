package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

// MemorySource is an in-memory model source for testing.
type MemorySource struct {
	mu       sync.Mutex
	model    *model.Model
	watchers []chan Event
}

// NewMemorySource creates a new in-memory model source.
func NewMemorySource(m *model.Model) *MemorySource {
	return &MemorySource{model: m}
}

func (s *MemorySource) Name() string { return "memory" }

// Load returns the model stored in memory.
func (s *MemorySource) Load(ctx context.Context) (*model.Model, []*pmlErrors.Error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return nil, nil, errors.New("memory source holds no model")
	}
	return s.model, nil, nil
}

// Watch returns a channel that receives the models passed to Set.
func (s *MemorySource) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

// Set replaces the stored model and notifies watchers. Watchers that are
// not keeping up miss the event.
func (s *MemorySource) Set(m *model.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
	ev := Event{Model: m, Time: time.Now()}
	for _, w := range s.watchers {
		select {
		case w <- ev:
		default:
		}
	}
}

// Fail notifies watchers of a failed reload without changing the model.
func (s *MemorySource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := Event{Err: err, Time: time.Now()}
	for _, w := range s.watchers {
		select {
		case w <- ev:
		default:
		}
	}
}
