// Package pipeline runs the periodic maintenance jobs of the recorder.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// Retention moves mirrored trades past the retention window from the
// database to cold storage.
type Retention struct {
	archiver      domain.Archiver
	retentionDays int
	logger        *slog.Logger
}

// NewRetention creates a Retention job over the given archiver.
func NewRetention(archiver domain.Archiver, retentionDays int, logger *slog.Logger) *Retention {
	return &Retention{
		archiver:      archiver,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "retention")),
	}
}

// Run executes a single retention pass, archiving every mirrored trade
// older than the retention window.
func (r *Retention) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(r.retentionDays) * 24 * time.Hour)
	r.logger.InfoContext(ctx, "starting retention pass",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", r.retentionDays),
	)

	archived, err := r.archiver.ArchiveTrades(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pipeline: archive trades before %v: %w", cutoff, err)
	}

	r.logger.InfoContext(ctx, "retention pass complete",
		slog.Int64("trades_archived", archived),
	)
	return nil
}

// RunCron runs retention passes on a cron schedule until the context is
// cancelled. Expressions use the standard 5-field format, for example
// "0 3 * * *" for 3:00 AM daily.
func (r *Retention) RunCron(ctx context.Context, cronExpr string) error {
	r.logger.InfoContext(ctx, "retention cron started", slog.String("cron", cronExpr))

	for {
		next, err := nextCronTime(cronExpr, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("pipeline: parse cron %q: %w", cronExpr, err)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("retention cron stopped")
			return ctx.Err()
		case <-timer.C:
			if err := r.Run(ctx); err != nil {
				r.logger.ErrorContext(ctx, "retention pass failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
