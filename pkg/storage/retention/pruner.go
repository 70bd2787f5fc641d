package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
	"github.com/ofirbed/DataTaggingLibrary/pkg/storage"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// MaxAge is how long a snapshot is kept after its last save.
	// 0 keeps snapshots forever.
	MaxAge time.Duration

	// MaxSnapshots is the maximum number of prunable snapshots to keep.
	// 0 means unlimited.
	MaxSnapshots int64

	// Schedule is a standard cron expression, e.g. "0 3 * * *".
	// Empty disables scheduled pruning.
	Schedule string

	// IncludeSuspended also prunes snapshots of runs that have not
	// finished.
	IncludeSuspended bool
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAge:   30 * 24 * time.Hour,
		Schedule: "0 3 * * *",
	}
}

// Pruner enforces retention on a snapshot store.
type Pruner struct {
	store     storage.Store
	config    *Config
	logger    *slog.Logger
	now       func() time.Time
	scheduler *Scheduler
}

// NewPruner creates a pruner for store.
func NewPruner(store storage.Store, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	p := &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "storage.retention"),
		now:    time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Scheduler returns the pruner's scheduler.
func (p *Pruner) Scheduler() *Scheduler { return p.scheduler }

// statuses returns the statuses eligible for pruning, nil meaning any.
func (p *Pruner) statuses() []runtime.Status {
	if p.config.IncludeSuspended {
		return nil
	}
	return []runtime.Status{runtime.StatusAccepted, runtime.StatusRejected, runtime.StatusError}
}

// Prune deletes snapshots older than MaxAge, then the oldest snapshots
// beyond MaxSnapshots. It returns the number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.MaxAge > 0 {
		cutoff := p.now().Add(-p.config.MaxAge)
		n, err := p.store.DeleteMatching(ctx, &storage.Filter{
			Statuses:      p.statuses(),
			UpdatedBefore: &cutoff,
		})
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += n
		p.logger.Debug("pruned snapshots by age", "deleted_count", n, "max_age", p.config.MaxAge)
	}

	if p.config.MaxSnapshots > 0 {
		n, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += n
	}

	if total > 0 {
		p.logger.Info("snapshot pruning completed",
			"total_deleted", total,
			"max_age", p.config.MaxAge,
			"max_snapshots", p.config.MaxSnapshots,
		)
	}
	return total, nil
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	filter := &storage.Filter{Statuses: p.statuses()}
	count, err := p.store.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	if count <= p.config.MaxSnapshots {
		return 0, nil
	}

	// List is ordered oldest first.
	filter.Limit = int(count - p.config.MaxSnapshots)
	oldest, err := p.store.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var deleted int64
	for _, rec := range oldest {
		if err := p.store.Delete(ctx, rec.RunID); err != nil {
			return deleted, fmt.Errorf("failed to delete snapshot %s: %w", rec.RunID, err)
		}
		deleted++
	}
	p.logger.Debug("pruned snapshots by count", "deleted_count", deleted, "max_snapshots", p.config.MaxSnapshots)
	return deleted, nil
}
