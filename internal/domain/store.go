package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// TradeStore persists recorded trade events.
type TradeStore interface {
	InsertBatch(ctx context.Context, events []TradeEvent) error
	GetLastTimestamp(ctx context.Context) (time.Time, error)
	ListBySession(ctx context.Context, sessionID string, opts ListOpts) ([]TradeEvent, error)
	ListByWallet(ctx context.Context, wallet string, opts ListOpts) ([]TradeEvent, error)
	ListBefore(ctx context.Context, before time.Time) ([]TradeEvent, error)
}

// TradeLoader materializes the full event set for one session or one wallet.
// Implementations must drop individual malformed records with a logged
// warning rather than failing the whole load.
type TradeLoader interface {
	Load(ctx context.Context, identifier string) ([]TradeEvent, error)
}

// TradeWriter appends events to the recording layer as they arrive.
type TradeWriter interface {
	Append(ctx context.Context, event TradeEvent) error
	CloseSession(ctx context.Context, sessionID string) error
}
