// Package session computes time-of-day session slugs and drives session
// rollover. A session is one recording window (e.g. the hourly
// "btc-up-or-down-3pm-et" market); the scheduler names the current window
// and fires a callback when the clock crosses into the next one.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quangkl1998/polymarket/internal/config"
)

// Scheduler derives session slugs from wall-clock time in a configured
// timezone and emits rollover notifications. The clock is injectable for
// tests.
type Scheduler struct {
	template string
	loc      *time.Location
	span     time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Scheduler from the session configuration.
func New(cfg config.SessionConfig, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("session: load timezone %q: %w", cfg.Timezone, err)
	}
	return &Scheduler{
		template: cfg.SlugTemplate,
		loc:      loc,
		span:     time.Duration(cfg.RolloverHours) * time.Hour,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "session_scheduler")),
	}, nil
}

// WithClock replaces the wall clock, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Current returns the slug of the session the clock is currently inside.
func (s *Scheduler) Current() string {
	return s.SlugAt(s.now())
}

// SlugAt returns the slug of the session containing t. Sessions are anchored
// at local midnight and span RolloverHours each; the slug carries the label
// of the session's opening hour.
func (s *Scheduler) SlugAt(t time.Time) string {
	local := t.In(s.loc)
	spanHours := int(s.span / time.Hour)
	open := local.Hour() - local.Hour()%spanHours
	return fmt.Sprintf(s.template, hourLabel(open))
}

// NextRollover returns the instant the session containing t ends.
func (s *Scheduler) NextRollover(t time.Time) time.Time {
	local := t.In(s.loc)
	spanHours := int(s.span / time.Hour)
	open := local.Hour() - local.Hour()%spanHours
	start := time.Date(local.Year(), local.Month(), local.Day(), open, 0, 0, 0, s.loc)
	return start.Add(s.span)
}

// RolloverFunc is notified when a session closes; closed is the slug that
// just ended and next the slug now current.
type RolloverFunc func(ctx context.Context, closed, next string)

// Run blocks until ctx is cancelled, invoking onRollover every time the
// clock crosses a session boundary. The timer re-arms from the wall clock on
// each firing, so drift does not accumulate.
func (s *Scheduler) Run(ctx context.Context, onRollover RolloverFunc) error {
	current := s.Current()
	s.logger.InfoContext(ctx, "session scheduler started",
		slog.String("session", current),
	)

	for {
		wait := time.Until(s.NextRollover(s.now()))
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		next := s.Current()
		if next == current {
			// Fired a hair before the boundary; loop re-arms with the
			// residual wait.
			continue
		}

		s.logger.InfoContext(ctx, "session rollover",
			slog.String("closed", current),
			slog.String("next", next),
		)
		if onRollover != nil {
			onRollover(ctx, current, next)
		}
		current = next
	}
}

// hourLabel renders an hour-of-day as the slug fragment used by the
// exchange's market naming, e.g. 0 -> "12am", 13 -> "1pm".
func hourLabel(hour int) string {
	suffix := "am"
	h := hour
	switch {
	case hour == 0:
		h = 12
	case hour == 12:
		suffix = "pm"
	case hour > 12:
		h = hour - 12
		suffix = "pm"
	}
	return fmt.Sprintf("%d%s", h, suffix)
}
