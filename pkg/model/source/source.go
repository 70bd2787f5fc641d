package source

import (
	"context"
	"time"

	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

// Source loads a compiled model and reports when it changes.
type Source interface {
	// Load loads the model. Warnings are returned with a successful load.
	Load(ctx context.Context) (*model.Model, []*pmlErrors.Error, error)

	// Watch returns a channel that receives an event each time the model is
	// reloaded. The channel is closed when ctx is cancelled.
	Watch(ctx context.Context) (<-chan Event, error)

	// Name identifies the source in logs.
	Name() string
}

// Event reports a reload. Exactly one of Model and Err is set.
type Event struct {
	Model    *model.Model
	Warnings []*pmlErrors.Error
	Err      error
	Time     time.Time
}
