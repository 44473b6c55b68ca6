package analytics

import (
	"sort"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// PriceSnapshot is the volume-weighted summary of one fixed-width time
// window. BucketStart is the inclusive start of the half-open window
// [BucketStart, BucketStart+interval) in on-chain seconds.
type PriceSnapshot struct {
	BucketStart int64   `json:"bucket_start"`
	AvgPrice    float64 `json:"avg_price"`
	Volume      float64 `json:"volume"`
	Trades      int     `json:"trades"`
}

// SidePriceStats is one side's contribution at a single timestamp. A side
// with no trades reports zeroes rather than being omitted.
type SidePriceStats struct {
	AvgPrice float64 `json:"avg_price"`
	Wallets  int     `json:"wallets"`
	Trades   int     `json:"trades"`
	Volume   float64 `json:"volume"`
}

// DetailedPriceSnapshot groups trades sharing an exact on-chain timestamp,
// split by side, with combined totals across both sides.
type DetailedPriceSnapshot struct {
	Timestamp   int64          `json:"timestamp"`
	Buy         SidePriceStats `json:"buy"`
	Sell        SidePriceStats `json:"sell"`
	AvgPrice    float64        `json:"avg_price"`
	TotalVolume float64        `json:"total_volume"`
	TotalTrades int            `json:"total_trades"`
}

// timedEvents filters to trades that carry an on-chain timestamp (those
// without one are excluded, not defaulted) and match the optional outcome
// filter, returning a fresh slice sorted ascending by timestamp.
func timedEvents(events []domain.TradeEvent, outcome *int) []domain.TradeEvent {
	out := make([]domain.TradeEvent, 0, len(events))
	for _, ev := range events {
		if ev.OnChainTimestamp == nil {
			continue
		}
		if outcome != nil && (ev.OutcomeIndex == nil || *ev.OutcomeIndex != *outcome) {
			continue
		}
		out = append(out, ev)
	}
	domain.SortByChainTime(out)
	return out
}

// TrackByInterval partitions the timestamp range into consecutive half-open
// windows of intervalSeconds anchored at the first trade's timestamp and
// emits one snapshot per non-empty window, ordered by window start. Windows
// with no trades produce no row. A non-positive interval yields nil.
func TrackByInterval(events []domain.TradeEvent, intervalSeconds int64, outcome *int) []PriceSnapshot {
	if intervalSeconds <= 0 {
		return nil
	}

	timed := timedEvents(events, outcome)
	if len(timed) == 0 {
		return nil
	}

	first := timed[0].ChainTime()

	type bucketAcc struct {
		value  float64
		volume float64
		trades int
	}
	buckets := make(map[int64]*bucketAcc)

	for _, ev := range timed {
		idx := (ev.ChainTime() - first) / intervalSeconds
		acc := buckets[idx]
		if acc == nil {
			acc = &bucketAcc{}
			buckets[idx] = acc
		}
		acc.value += ev.Size * ev.Price
		acc.volume += ev.Size
		acc.trades++
	}

	indexes := make([]int64, 0, len(buckets))
	for idx := range buckets {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	out := make([]PriceSnapshot, 0, len(indexes))
	for _, idx := range indexes {
		acc := buckets[idx]
		out = append(out, PriceSnapshot{
			BucketStart: first + idx*intervalSeconds,
			AvgPrice:    vwap(acc.value, acc.volume),
			Volume:      acc.volume,
			Trades:      acc.trades,
		})
	}
	return out
}

// sideAcc accumulates one side of one exact-timestamp group.
type sideAcc struct {
	value   float64
	volume  float64
	trades  int
	wallets map[string]struct{}
}

func newSideAcc() *sideAcc {
	return &sideAcc{wallets: make(map[string]struct{})}
}

func (a *sideAcc) add(ev domain.TradeEvent) {
	a.value += ev.Size * ev.Price
	a.volume += ev.Size
	a.trades++
	if w := domain.NormalizeWallet(ev.Wallet); w != "" {
		a.wallets[w] = struct{}{}
	}
}

func (a *sideAcc) stats() SidePriceStats {
	return SidePriceStats{
		AvgPrice: vwap(a.value, a.volume),
		Wallets:  len(a.wallets),
		Trades:   a.trades,
		Volume:   a.volume,
	}
}

// TrackByTimestamp groups trades by identical on-chain timestamp and reports
// each side independently plus combined totals, ordered by timestamp
// ascending.
func TrackByTimestamp(events []domain.TradeEvent, outcome *int) []DetailedPriceSnapshot {
	timed := timedEvents(events, outcome)
	if len(timed) == 0 {
		return nil
	}

	type tsAcc struct {
		buy  *sideAcc
		sell *sideAcc
	}
	groups := make(map[int64]*tsAcc)

	for _, ev := range timed {
		ts := ev.ChainTime()
		acc := groups[ts]
		if acc == nil {
			acc = &tsAcc{buy: newSideAcc(), sell: newSideAcc()}
			groups[ts] = acc
		}
		switch ev.Side {
		case domain.SideBuy:
			acc.buy.add(ev)
		case domain.SideSell:
			acc.sell.add(ev)
		}
	}

	stamps := make([]int64, 0, len(groups))
	for ts := range groups {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	out := make([]DetailedPriceSnapshot, 0, len(stamps))
	for _, ts := range stamps {
		acc := groups[ts]
		snap := DetailedPriceSnapshot{
			Timestamp:   ts,
			Buy:         acc.buy.stats(),
			Sell:        acc.sell.stats(),
			TotalVolume: acc.buy.volume + acc.sell.volume,
			TotalTrades: acc.buy.trades + acc.sell.trades,
		}
		snap.AvgPrice = vwap(acc.buy.value+acc.sell.value, snap.TotalVolume)
		out = append(out, snap)
	}
	return out
}
