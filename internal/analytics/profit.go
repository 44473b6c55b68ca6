// Package analytics contains the pure analytical core: wallet statistics,
// FIFO profit accounting, price-level aggregation, and time-bucketed price
// tracking. Every function is a stateless transformation over an
// already-materialized event set; callers may invoke them concurrently as
// long as each call owns read-only access to its input slice.
package analytics

import (
	"sort"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// lot is one unconsumed buy parcel in an outcome's FIFO queue.
type lot struct {
	remaining float64
	unitPrice float64
}

// OutcomeProfit is the per-outcome breakdown of a wallet's P&L.
//
// AvgBuyPrice and AvgSellPrice are volume-weighted over every buy/sell ever
// seen for the outcome, while AvgOpenCost is weighted over the lots still in
// the FIFO queue after processing. The two bases diverge once any lot has
// been consumed; downstream consumers rely on both.
type OutcomeProfit struct {
	OutcomeIndex     int     `json:"outcome_index"`
	RealizedProfit   float64 `json:"realized_profit"`
	UnrealizedProfit float64 `json:"unrealized_profit"`
	OpenPosition     float64 `json:"open_position"`
	AvgBuyPrice      float64 `json:"avg_buy_price"`
	AvgSellPrice     float64 `json:"avg_sell_price"`
	AvgOpenCost      float64 `json:"avg_open_cost"`
	BuyVolume        float64 `json:"buy_volume"`
	SellVolume       float64 `json:"sell_volume"`
	TotalCost        float64 `json:"total_cost"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// WalletProfit is the full P&L report for one wallet across all outcomes.
type WalletProfit struct {
	Wallet           string          `json:"wallet"`
	TotalCost        float64         `json:"total_cost"`
	TotalRevenue     float64         `json:"total_revenue"`
	RealizedProfit   float64         `json:"realized_profit"`
	UnrealizedProfit float64         `json:"unrealized_profit"`
	TotalProfit      float64         `json:"total_profit"`
	OpenPosition     float64         `json:"open_position"`
	Outcomes         []OutcomeProfit `json:"outcomes"`
}

// outcomeState accumulates one outcome's running position while trades are
// replayed in chain-time order.
type outcomeState struct {
	lots      []lot
	openPos   float64
	realized  float64
	buyVolume float64
	buyValue  float64
	selVolume float64
	selValue  float64
}

// ComputeWalletProfit replays the wallet's trades in ascending on-chain
// timestamp order and matches sells against buys first-in-first-out,
// separately per outcome index. Trades without an outcome index are skipped
// entirely. A sell that exceeds the queued buy volume drives the open
// position negative (a short) and realizes nothing for the unmatched
// remainder; a later buy always opens a fresh lot rather than covering the
// short.
//
// currentPrices maps outcome index to the latest traded price and is only
// consulted for outcomes with a positive open position; pass nil to skip
// unrealized P&L.
func ComputeWalletProfit(events []domain.TradeEvent, wallet string, currentPrices map[int]float64) WalletProfit {
	key := domain.NormalizeWallet(wallet)

	own := make([]domain.TradeEvent, 0, len(events))
	for _, ev := range events {
		if domain.NormalizeWallet(ev.Wallet) != key {
			continue
		}
		if ev.OutcomeIndex == nil {
			continue
		}
		own = append(own, ev)
	}
	domain.SortByChainTime(own)

	states := make(map[int]*outcomeState)
	for _, ev := range own {
		idx := *ev.OutcomeIndex
		st := states[idx]
		if st == nil {
			st = &outcomeState{}
			states[idx] = st
		}
		st.apply(ev)
	}

	report := WalletProfit{Wallet: key}

	indexes := make([]int, 0, len(states))
	for idx := range states {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	for _, idx := range indexes {
		st := states[idx]

		out := OutcomeProfit{
			OutcomeIndex:   idx,
			RealizedProfit: st.realized,
			OpenPosition:   st.openPos,
			BuyVolume:      st.buyVolume,
			SellVolume:     st.selVolume,
			TotalCost:      st.buyValue,
			TotalRevenue:   st.selValue,
			AvgBuyPrice:    vwap(st.buyValue, st.buyVolume),
			AvgSellPrice:   vwap(st.selValue, st.selVolume),
			AvgOpenCost:    st.openCost(),
		}

		if st.openPos > 0 {
			if cur, ok := currentPrices[idx]; ok {
				out.UnrealizedProfit = (cur - out.AvgOpenCost) * st.openPos
			}
		}

		report.TotalCost += out.TotalCost
		report.TotalRevenue += out.TotalRevenue
		report.RealizedProfit += out.RealizedProfit
		report.UnrealizedProfit += out.UnrealizedProfit
		report.OpenPosition += out.OpenPosition
		report.Outcomes = append(report.Outcomes, out)
	}

	report.TotalProfit = report.RealizedProfit + report.UnrealizedProfit
	return report
}

// apply folds one trade into the outcome state.
func (st *outcomeState) apply(ev domain.TradeEvent) {
	size, price := ev.Size, ev.Price

	switch ev.Side {
	case domain.SideBuy:
		st.lots = append(st.lots, lot{remaining: size, unitPrice: price})
		st.openPos += size
		st.buyVolume += size
		st.buyValue += size * price
	case domain.SideSell:
		st.selVolume += size
		st.selValue += size * price

		remaining := size
		for remaining > 0 && len(st.lots) > 0 {
			head := &st.lots[0]
			matched := remaining
			if head.remaining < matched {
				matched = head.remaining
			}
			st.realized += (price - head.unitPrice) * matched
			head.remaining -= matched
			remaining -= matched
			st.openPos -= matched
			if head.remaining <= 0 {
				st.lots = st.lots[1:]
			}
		}
		// Unmatched remainder: go short, no cost basis assigned.
		st.openPos -= remaining
	}
}

// openCost is the volume-weighted unit price of the lots still queued.
func (st *outcomeState) openCost() float64 {
	var vol, val float64
	for _, l := range st.lots {
		vol += l.remaining
		val += l.remaining * l.unitPrice
	}
	return vwap(val, vol)
}

// RankByProfit computes a WalletProfit for every wallet in the event set and
// returns the top entries ordered by total profit descending. Ties break on
// wallet address ascending so the ranking is deterministic. A limit <= 0
// returns all wallets.
func RankByProfit(events []domain.TradeEvent, limit int, currentPrices map[int]float64) []WalletProfit {
	reports := make([]WalletProfit, 0)
	for _, w := range walletUniverse(events) {
		reports = append(reports, ComputeWalletProfit(events, w, currentPrices))
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].TotalProfit != reports[j].TotalProfit {
			return reports[i].TotalProfit > reports[j].TotalProfit
		}
		return reports[i].Wallet < reports[j].Wallet
	})

	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports
}

// walletUniverse returns the sorted set of normalized wallet addresses that
// appear in the event set. Events without a wallet are ignored.
func walletUniverse(events []domain.TradeEvent) []string {
	seen := make(map[string]struct{})
	for _, ev := range events {
		w := domain.NormalizeWallet(ev.Wallet)
		if w == "" {
			continue
		}
		seen[w] = struct{}{}
	}
	wallets := make([]string, 0, len(seen))
	for w := range seen {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)
	return wallets
}

// vwap divides value by volume, defining 0/0 as 0 rather than NaN.
func vwap(value, volume float64) float64 {
	if volume == 0 {
		return 0
	}
	return value / volume
}
