package analytics

import (
	"math"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// trade builds a fully-populated event for tests. outcome 0 is a valid
// index, so optional fields take pointers.
func trade(wallet string, side domain.Side, size, price float64, outcome *int, ts *int64) domain.TradeEvent {
	return domain.TradeEvent{
		SessionID:        "test-session",
		Wallet:           wallet,
		Side:             side,
		Size:             size,
		Price:            price,
		OutcomeIndex:     outcome,
		OnChainTimestamp: ts,
	}
}

func idx(i int) *int { return &i }

func at(ts int64) *int64 { return &ts }

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
