package health

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"
)

// Check and overall statuses.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
)

// DefaultCheckTimeout bounds a check when the checker is created without one.
const DefaultCheckTimeout = 5 * time.Second

// ErrCheckTimeout is reported when a check does not finish within the
// checker's timeout.
var ErrCheckTimeout = errors.New("health check timeout")

// CheckFunc performs a health check for a component.
// It returns nil if the component is healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the result of a single check.
type CheckResult struct {
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// HealthStatus is the aggregated status of the process.
type HealthStatus struct {
	// Status is "ok" for liveness, "ready" or "degraded" for readiness.
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Checker runs the readiness checks registered by the serving components.
type Checker struct {
	mu           sync.RWMutex
	checks       map[string]CheckFunc
	checkTimeout time.Duration
	now          func() time.Time
}

// New creates a checker. A zero timeout uses DefaultCheckTimeout.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout <= 0 {
		checkTimeout = DefaultCheckTimeout
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
		now:          time.Now,
	}
}

// RegisterCheck installs check under name, replacing any previous one.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	c.checks[name] = check
	c.mu.Unlock()
}

func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	delete(c.checks, name)
	c.mu.Unlock()
}

// ListChecks returns the registered names, sorted.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.checks))
}

// CheckLiveness always reports ok; answering at all is the signal.
func (c *Checker) CheckLiveness(context.Context) HealthStatus {
	return HealthStatus{Status: StatusOK, Timestamp: c.now()}
}

// CheckReadiness runs the registered checks in parallel and reports
// degraded if any of them fails or times out.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := maps.Clone(c.checks)
	c.mu.RUnlock()

	type named struct {
		name string
		res  CheckResult
	}
	done := make(chan named, len(checks))
	for name, check := range checks {
		go func() { done <- named{name, c.runCheck(ctx, check)} }()
	}

	st := HealthStatus{Status: StatusReady, Checks: make(map[string]CheckResult, len(checks))}
	for range checks {
		n := <-done
		st.Checks[n.name] = n.res
		if n.res.Status != StatusOK {
			st.Status = StatusDegraded
		}
	}
	st.Timestamp = c.now()
	return st
}

// runCheck bounds check by the checker's timeout. A check that ignores
// its context keeps running in the background but is reported as timed
// out.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	errc := make(chan error, 1)
	go func() { errc <- check(ctx) }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ErrCheckTimeout
	}
	res := CheckResult{Status: StatusOK, Duration: time.Since(start)}
	if err != nil {
		res.Status, res.Message = StatusUnhealthy, err.Error()
	}
	return res
}
