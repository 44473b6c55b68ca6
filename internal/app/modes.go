package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quangkl1998/polymarket/internal/domain"
	"github.com/quangkl1998/polymarket/internal/feed"
	"github.com/quangkl1998/polymarket/internal/pipeline"
	"github.com/quangkl1998/polymarket/internal/server"
	"github.com/quangkl1998/polymarket/internal/server/handler"
)

// Mirror batching bounds. A batch is flushed when it fills or when the
// interval elapses, whichever happens first.
const (
	mirrorBatchSize     = 100
	mirrorFlushInterval = 2 * time.Second
	shutdownGrace       = 10 * time.Second
)

// RecordMode runs the feed, the file recorder, and the session scheduler
// without the HTTP API.
func (a *App) RecordMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "record mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startRecording(ctx, g, deps)
	return g.Wait()
}

// ServeMode runs only the read-only HTTP API over previously recorded
// sessions.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "serve mode")

	if !a.cfg.Server.Enabled {
		return fmt.Errorf("app: serve mode with server disabled")
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// FullMode runs recording and the HTTP API in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startRecording(ctx, g, deps)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}
	return g.Wait()
}

// startRecording wires the feed into the writer, the database mirror, and
// the price cache, and runs the session rollover loop.
func (a *App) startRecording(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	var mirrorCh chan domain.TradeEvent
	if deps.TradeStore != nil {
		mirrorCh = make(chan domain.TradeEvent, mirrorBatchSize)
		g.Go(func() error {
			return a.runMirror(ctx, deps.TradeStore, mirrorCh)
		})
	}

	onTrade := func(ctx context.Context, ev domain.TradeEvent) {
		if ev.SessionID == "" {
			ev.SessionID = deps.Scheduler.Current()
		}

		if err := deps.Writer.Append(ctx, ev); err != nil {
			a.logger.WarnContext(ctx, "append failed",
				slog.String("session_id", ev.SessionID),
				slog.String("error", err.Error()),
			)
		}

		if mirrorCh != nil {
			select {
			case mirrorCh <- ev:
			default:
				a.logger.WarnContext(ctx, "mirror backlog full, dropping event",
					slog.String("tx_hash", ev.TxHash),
				)
			}
		}

		if deps.PriceCache != nil && ev.OutcomeIndex != nil && ev.Price > 0 {
			if err := deps.PriceCache.SetPrice(ctx, ev.SessionID, *ev.OutcomeIndex, ev.Price, ev.ReceivedAt); err != nil {
				a.logger.WarnContext(ctx, "price cache update failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}

	sub := feed.NewSubscriber(a.cfg.Feed.WsHost, a.cfg.Feed.AssetIDs, onTrade, a.logger)
	g.Go(func() error {
		defer sub.Close()
		return sub.Run(ctx)
	})

	g.Go(func() error {
		return deps.Scheduler.Run(ctx, func(ctx context.Context, closed, next string) {
			a.rollover(ctx, deps, closed, next)
		})
	})

	if a.cfg.Retention.Enabled && deps.Archiver != nil {
		retention := pipeline.NewRetention(deps.Archiver, a.cfg.Retention.Days, a.logger)
		g.Go(func() error {
			return retention.RunCron(ctx, a.cfg.Retention.Cron)
		})
	}
}

// runMirror drains the event channel into the database in batches.
func (a *App) runMirror(ctx context.Context, store domain.TradeStore, events <-chan domain.TradeEvent) error {
	batch := make([]domain.TradeEvent, 0, mirrorBatchSize)
	ticker := time.NewTicker(mirrorFlushInterval)
	defer ticker.Stop()

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := store.InsertBatch(ctx, batch); err != nil {
			a.logger.WarnContext(ctx, "mirror insert failed",
				slog.Int("events", len(batch)),
				slog.String("error", err.Error()),
			)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			// Final flush runs on a fresh context; the loop context is gone.
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			flush(flushCtx)
			cancel()
			return ctx.Err()
		case ev := <-events:
			batch = append(batch, ev)
			if len(batch) >= mirrorBatchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}

// rollover closes the finished session's files and archives them.
func (a *App) rollover(ctx context.Context, deps *Dependencies, closed, next string) {
	a.logger.InfoContext(ctx, "session rollover",
		slog.String("closed", closed),
		slog.String("next", next),
	)

	if err := deps.Writer.CloseSession(ctx, closed); err != nil {
		a.logger.WarnContext(ctx, "close session failed",
			slog.String("session_id", closed),
			slog.String("error", err.Error()),
		)
	}

	_ = deps.Notifier.Notify(ctx, "session.rollover",
		"Session rolled over",
		fmt.Sprintf("closed %s, recording %s", closed, next),
	)

	if deps.Archiver == nil {
		return
	}
	if _, err := deps.Archiver.ArchiveSession(ctx, closed); err != nil {
		a.logger.WarnContext(ctx, "archive session failed",
			slog.String("session_id", closed),
			slog.String("error", err.Error()),
		)
		_ = deps.Notifier.Notify(ctx, "archive.failed",
			"Session archive failed",
			fmt.Sprintf("%s: %v", closed, err),
		)
	}
}

// startHTTPServer adds the API server to the errgroup with graceful
// shutdown on context cancellation.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(a.logger, deps.Checks, deps.TradeStore),
		Trades:      handler.NewTradesHandler(deps.Loader, deps.TradeStore, a.logger),
		Wallets:     handler.NewWalletHandler(deps.Loader, deps.PriceCache, a.logger),
		Leaderboard: handler.NewLeaderboardHandler(deps.Loader, deps.PriceCache, a.logger),
		Prices:      handler.NewPricesHandler(deps.Loader, a.logger),
		History:     handler.NewHistoryHandler(deps.Loader, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, deps.RateLimiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	})
}
