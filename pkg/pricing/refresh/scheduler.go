package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher is the part of pricing.Store the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler refreshes pricing on a cron schedule.
type Scheduler struct {
	store    Refresher
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler that calls store.Refresh on schedule.
func NewScheduler(store Refresher, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "pricing.scheduler"),
	}
}

// Start schedules the refresh job. Standard five-field cron expressions and
// descriptors are accepted:
//   - "0 */6 * * *"  - Every 6 hours
//   - "@daily"       - Once a day at midnight
//   - "@every 30m"   - Every 30 minutes
//
// If the schedule is empty, the scheduler does nothing. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("refresh schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunNow(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("pricing refresh scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunNow performs one refresh immediately. Failures are logged; the store
// keeps serving its current table.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.logger.Debug("starting scheduled pricing refresh")

	start := time.Now()
	if err := s.store.Refresh(ctx); err != nil {
		s.logger.Error("scheduled pricing refresh failed", "error", err)
		return
	}

	s.logger.Info("scheduled pricing refresh completed",
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Stop stops the scheduler and waits for a running refresh to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("pricing refresh scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled refresh time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
