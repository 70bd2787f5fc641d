package health

import (
	"context"
	"fmt"

	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/storage"
)

// ModelProvider returns the model currently being served.
type ModelProvider interface {
	Model() (*model.Model, error)
}

// ModelCheck fails until p has a model installed.
func ModelCheck(p ModelProvider) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := p.Model(); err != nil {
			return err
		}
		return nil
	}
}

// StoreCheck fails when the snapshot store cannot be queried.
func StoreCheck(store storage.Store) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := store.Count(ctx, nil); err != nil {
			return fmt.Errorf("snapshot store: %w", err)
		}
		return nil
	}
}
