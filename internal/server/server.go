// Package server exposes the recorded sessions over a read-only JSON API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quangkl1998/polymarket/internal/domain"
	"github.com/quangkl1998/polymarket/internal/server/handler"
	"github.com/quangkl1998/polymarket/internal/server/middleware"
)

// Per-client budget for the rate limiter.
const (
	rateLimitRequests = 60
	rateLimitWindow   = time.Minute
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables authentication
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health      *handler.HealthHandler
	Trades      *handler.TradesHandler
	Wallets     *handler.WalletHandler
	Leaderboard *handler.LeaderboardHandler
	Prices      *handler.PricesHandler
	History     *handler.HistoryHandler
}

// Server is the read-only HTTP API over recorded trade sessions.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes on a ServeMux and wires the middleware
// chain. limiter may be nil, which disables rate limiting.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/sessions/{id}/trades", handlers.Trades.ListTrades)
	mux.HandleFunc("GET /api/sessions/{id}/wallets/{wallet}/stats", handlers.Wallets.GetStats)
	mux.HandleFunc("GET /api/sessions/{id}/wallets/{wallet}/profit", handlers.Wallets.GetProfit)
	mux.HandleFunc("GET /api/sessions/{id}/leaderboard", handlers.Leaderboard.Rank)
	mux.HandleFunc("GET /api/sessions/{id}/prices", handlers.Prices.ListLevels)
	mux.HandleFunc("GET /api/sessions/{id}/history", handlers.History.GetHistory)

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil {
		h = middleware.RateLimit(limiter, rateLimitRequests, rateLimitWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Start listens for HTTP requests. It blocks until the server errors or
// is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
