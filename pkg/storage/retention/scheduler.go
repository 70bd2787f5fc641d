package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Result describes one scheduled prune.
type Result struct {
	Started  time.Time
	Duration time.Duration
	Deleted  int64
	Err      error
}

// Scheduler prunes on the pruner's cron schedule. A prune that is still
// running when the next one is due causes that one to be skipped.
type Scheduler struct {
	pruner *Pruner
	logger *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	unwatch func() bool // detaches the stop hook from Start's ctx
	last    *Result
}

func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		logger: slog.Default().With("component", "storage.scheduler"),
	}
}

// Start begins pruning on schedule until ctx is done or Stop is called.
// With no schedule configured it returns nil and schedules nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	expr := s.pruner.config.Schedule
	if expr == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("scheduler already running")
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s.entry = c.Schedule(sched, cron.FuncJob(func() { s.run(ctx) }))
	c.Start()
	s.cron = c
	s.unwatch = context.AfterFunc(ctx, s.Stop)
	s.logger.Info("retention scheduler started", "schedule", expr)
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	res := Result{Started: time.Now()}
	res.Deleted, res.Err = s.pruner.Prune(ctx)
	res.Duration = time.Since(res.Started)

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()

	if res.Err != nil {
		s.logger.Error("scheduled pruning failed", "error", res.Err)
		return
	}
	s.logger.Debug("scheduled pruning completed", "deleted_count", res.Deleted, "duration", res.Duration)
}

// Stop stops the schedule and waits for a prune in progress. Stopping a
// scheduler that is not running does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, unwatch := s.cron, s.unwatch
	s.cron, s.unwatch = nil, nil
	s.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	if c != nil {
		<-c.Stop().Done()
		s.logger.Info("retention scheduler stopped")
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// NextRun is the time of the next scheduled prune.
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return time.Time{}, false
	}
	return s.cron.Entry(s.entry).Next, true
}

// Last returns the outcome of the most recent scheduled prune.
func (s *Scheduler) Last() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}
