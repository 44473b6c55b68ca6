package domain

import (
	"context"
	"time"
)

// OutcomePriceCache holds the latest traded price per (session, outcome
// index). The profit handlers read it to build the current-price map that
// feeds unrealized P&L.
type OutcomePriceCache interface {
	SetPrice(ctx context.Context, sessionID string, outcomeIndex int, price float64, ts time.Time) error
	GetPrice(ctx context.Context, sessionID string, outcomeIndex int) (float64, time.Time, error)
	GetPrices(ctx context.Context, sessionID string, outcomeIndexes []int) (map[int]float64, error)
}

// RateLimiter answers whether a keyed caller may make another request
// within the current window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
