package domain

import (
	"sort"
	"strings"
	"time"
)

// Side indicates whether a trade bought or sold the outcome token.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// NormalizeSide maps feed spellings ("buy", "Buy", "BUY") onto the canonical
// Side values. Unknown values are returned unchanged so callers can reject
// them explicitly.
func NormalizeSide(s string) Side {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy
	case "SELL":
		return SideSell
	default:
		return Side(s)
	}
}

// TradeEvent is one matched trade as recorded from the exchange push feed.
// OutcomeIndex and OnChainTimestamp are optional; a nil OutcomeIndex excludes
// the event from profit matching and outcome-filtered aggregation, and a nil
// OnChainTimestamp sorts as 0 for FIFO ordering but excludes the event from
// time-bucketed price tracking.
type TradeEvent struct {
	ReceivedAt       time.Time `json:"received_at"`
	SessionID        string    `json:"session_id"`
	Wallet           string    `json:"wallet"`
	Side             Side      `json:"side"`
	Size             float64   `json:"size"`
	Price            float64   `json:"price"`
	OutcomeLabel     string    `json:"outcome_label,omitempty"`
	OutcomeIndex     *int      `json:"outcome_index,omitempty"`
	OnChainTimestamp *int64    `json:"on_chain_timestamp,omitempty"`
	TxHash           string    `json:"tx_hash,omitempty"`
	ConditionID      string    `json:"condition_id,omitempty"`
}

// NormalizeWallet returns the canonical (lowercased, trimmed) form of a
// wallet address. All grouping and comparison keys use this form.
func NormalizeWallet(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ChainTime returns the on-chain timestamp in seconds, or 0 when the event
// carries none. The zero default is the fixed ordering tie-break for FIFO
// matching, not an accident of representation.
func (t TradeEvent) ChainTime() int64 {
	if t.OnChainTimestamp == nil {
		return 0
	}
	return *t.OnChainTimestamp
}

// SortByChainTime sorts events ascending by on-chain timestamp (missing
// timestamps first, as 0). The sort is stable so equal-timestamp events keep
// their arrival order.
func SortByChainTime(events []TradeEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ChainTime() < events[j].ChainTime()
	})
}
