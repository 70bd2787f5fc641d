package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
)

// ErrSnapshotNotFound is returned when no snapshot is stored for a run id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Record is a stored snapshot.
type Record struct {
	RunID     string
	Snapshot  *runtime.Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	// ModelSource matches the snapshot's model source exactly.
	ModelSource string

	// Statuses matches any of the listed run statuses.
	Statuses []runtime.Status

	// UpdatedBefore matches records last saved strictly before this time.
	UpdatedBefore *time.Time

	// Limit caps the number of records returned by List. 0 means no limit.
	Limit int

	// Offset skips records in List.
	Offset int
}

func (f *Filter) matches(r *Record) bool {
	if f == nil {
		return true
	}
	if f.ModelSource != "" && r.Snapshot.ModelSource != f.ModelSource {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if r.Snapshot.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.UpdatedBefore != nil && !r.UpdatedAt.Before(*f.UpdatedBefore) {
		return false
	}
	return true
}

// Store persists snapshots.
type Store interface {
	// Save stores s under runID, replacing any previous snapshot.
	Save(ctx context.Context, runID string, s *runtime.Snapshot) error

	// Load returns the snapshot stored under runID.
	Load(ctx context.Context, runID string) (*Record, error)

	// List returns matching records, oldest update first.
	List(ctx context.Context, f *Filter) ([]*Record, error)

	// Count returns the number of matching records, ignoring Limit and
	// Offset.
	Count(ctx context.Context, f *Filter) (int64, error)

	// Delete removes the snapshot stored under runID.
	Delete(ctx context.Context, runID string) error

	// DeleteMatching removes every matching record, ignoring Limit and
	// Offset, and returns how many were removed.
	DeleteMatching(ctx context.Context, f *Filter) (int64, error)

	Close() error
}

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

func newStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

func defaultOptions(component string, opts []Option) *options {
	o := &options{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", component)
	return o
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func validateSave(runID string, s *runtime.Snapshot) error {
	if runID == "" {
		return errors.New("run id cannot be empty")
	}
	if s == nil {
		return errors.New("snapshot cannot be nil")
	}
	return nil
}
