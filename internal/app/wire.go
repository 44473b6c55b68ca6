package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	s3blob "github.com/quangkl1998/polymarket/internal/blob/s3"
	"github.com/quangkl1998/polymarket/internal/cache/redis"
	"github.com/quangkl1998/polymarket/internal/config"
	"github.com/quangkl1998/polymarket/internal/domain"
	"github.com/quangkl1998/polymarket/internal/notify"
	"github.com/quangkl1998/polymarket/internal/server/handler"
	"github.com/quangkl1998/polymarket/internal/session"
	"github.com/quangkl1998/polymarket/internal/store/filetree"
	"github.com/quangkl1998/polymarket/internal/store/postgres"
)

// Dependencies bundles everything the modes need. Optional backends are
// nil when disabled in configuration.
type Dependencies struct {
	Writer    *filetree.Writer
	Loader    *filetree.Loader
	Scheduler *session.Scheduler

	TradeStore  domain.TradeStore        // nil unless postgres.enabled
	PriceCache  domain.OutcomePriceCache // nil unless redis.enabled
	RateLimiter domain.RateLimiter       // nil unless redis.enabled
	Archiver    domain.Archiver          // nil unless s3.enabled

	Notifier *notify.Notifier

	// Checks feed the health endpoint with per-backend connectivity.
	Checks []handler.ComponentCheck
}

// recordsTrades reports whether the mode runs the feed and recorder.
func recordsTrades(mode string) bool {
	switch strings.ToLower(mode) {
	case "record", "full":
		return true
	default:
		return false
	}
}

// Wire constructs the concrete dependency implementations from the given
// configuration. The returned cleanup releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Loader: filetree.NewLoader(cfg.Recorder.DataDir, logger),
	}

	if recordsTrades(cfg.Mode) {
		deps.Writer = filetree.NewWriter(cfg.Recorder.DataDir, cfg.Recorder.FlushEvery, logger)
		closers = append(closers, func() { _ = deps.Writer.Close() })

		sched, err := session.New(cfg.Session, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: session scheduler: %w", err)
		}
		deps.Scheduler = sched
	}

	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.TradeStore = postgres.NewTradeStore(pool)
		deps.Checks = append(deps.Checks, handler.ComponentCheck{
			Name:  "postgres",
			Check: pool.Ping,
		})
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		// Prices outlive a session by a day at most; sessions are hours.
		deps.PriceCache = redis.NewOutcomePriceCache(redisClient, 24*time.Hour)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.Checks = append(deps.Checks, handler.ComponentCheck{
			Name:  "redis",
			Check: redisClient.Ping,
		})
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client),
			s3blob.NewReader(s3Client),
			deps.Loader,
			deps.TradeStore,
			logger,
		)
		deps.Checks = append(deps.Checks, handler.ComponentCheck{
			Name:  "s3",
			Check: s3Client.Health,
		})
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
