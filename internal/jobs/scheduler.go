// Package jobs runs periodic housekeeping for the API server.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionCleaner removes expired login sessions
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// LimiterCleaner drops idle rate-limit entries
type LimiterCleaner interface {
	Cleanup() int
}

// jobTimeout bounds a single housekeeping run
const jobTimeout = time.Minute

// Scheduler wraps a cron runner with the server's housekeeping jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler registers the cleanup jobs on schedule (standard cron spec or "@every 1h")
func NewScheduler(schedule string, sessions SessionCleaner, limiter LimiterCleaner, logger *slog.Logger) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, logger: logger}

	if _, err := c.AddFunc(schedule, func() { s.cleanup(sessions, limiter) }); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) cleanup(sessions SessionCleaner, limiter LimiterCleaner) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := sessions.CleanupExpiredSessions(ctx); err != nil {
		s.logger.Error("session cleanup failed", "error", err)
	}
	if n := limiter.Cleanup(); n > 0 {
		s.logger.Debug("rate limiter entries dropped", "count", n)
	}
}
