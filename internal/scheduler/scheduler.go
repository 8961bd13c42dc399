// Package scheduler runs the daily snapshot refresh in a background
// goroutine. One instance runs per process, started once at startup.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanniew/hntv-live/internal/metrics"
)

// cst mirrors the fixed UTC+8 zone the refresh wall-clock time is defined in.
var cst = time.FixedZone("UTC+8", 8*60*60)

// Scheduler wakes at a fixed hour:minute (UTC+8) on the following day and runs
// the refresh. A failed cycle is logged and optionally notified; the loop
// always continues.
type Scheduler struct {
	refresh func(ctx context.Context) error
	hour    int
	minute  int
	logger  *slog.Logger

	// notify, when set, reports a failed cycle (fire-and-forget).
	notify func(title, message string)

	// now and timer are replaceable so tests can drive time without sleeping.
	now   func() time.Time
	timer func(d time.Duration) <-chan time.Time
}

// New creates a Scheduler that calls refresh daily at hour:minute UTC+8.
func New(refresh func(ctx context.Context) error, hour, minute int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresh: refresh,
		hour:    hour,
		minute:  minute,
		logger:  logger,
		now:     time.Now,
		timer: func(d time.Duration) <-chan time.Time {
			return time.After(d)
		},
	}
}

// SetNotifier installs a failure notification hook.
func (s *Scheduler) SetNotifier(notify func(title, message string)) {
	s.notify = notify
}

// NextWake returns the configured wall-clock time on the day after now,
// computed in UTC+8.
func (s *Scheduler) NextWake(now time.Time) time.Time {
	tomorrow := now.In(cst).Add(24 * time.Hour)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), s.hour, s.minute, 0, 0, cst)
}

// Run loops until ctx is cancelled. Errors and panics inside a refresh cycle
// never terminate the loop.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.NextWake(s.now())
		wait := next.Sub(s.now())
		s.logger.Info("Waiting for next snapshot refresh", "next", next.Format(time.RFC3339), "wait", wait.String())

		select {
		case <-ctx.Done():
			s.logger.Info("Refresh scheduler stopping")
			return
		case <-s.timer(wait):
		}

		if err := s.runOnce(ctx); err != nil {
			metrics.SnapshotRefreshes.WithLabelValues("error").Inc()
			s.logger.Error("Snapshot refresh failed", "error", err)
			if s.notify != nil {
				s.notify("Snapshot refresh failed", err.Error())
			}
			continue
		}
		metrics.SnapshotRefreshes.WithLabelValues("ok").Inc()
		s.logger.Info("Snapshot refreshed")
	}
}

func (s *Scheduler) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh panicked: %v", r)
		}
	}()
	return s.refresh(ctx)
}
