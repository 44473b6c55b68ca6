package analytics

import (
	"math"
	"sort"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// PriceLevelStats summarizes every trade that printed at one exact price.
type PriceLevelStats struct {
	Price       float64  `json:"price"`
	BuyWallets  int      `json:"buy_wallets"`
	SellWallets int      `json:"sell_wallets"`
	BuyVolume   float64  `json:"buy_volume"`
	SellVolume  float64  `json:"sell_volume"`
	TotalVolume float64  `json:"total_volume"`
	BuyTrades   int      `json:"buy_trades"`
	SellTrades  int      `json:"sell_trades"`
	TotalTrades int      `json:"total_trades"`
	Wallets     []string `json:"wallets"`
}

// priceLevelAcc accumulates one price level before the distinct-wallet sets
// collapse into counts.
type priceLevelAcc struct {
	stats       PriceLevelStats
	buyWallets  map[string]struct{}
	sellWallets map[string]struct{}
}

// AggregateByPrice groups trades by exact price. The grouping key is numeric
// equality, no rounding. Trades lacking a price or a wallet are excluded.
// When outcome is non-nil only trades for that outcome index participate.
// The result is ordered ascending by price.
func AggregateByPrice(events []domain.TradeEvent, outcome *int) []PriceLevelStats {
	levels := make(map[float64]*priceLevelAcc)

	for _, ev := range events {
		wallet := domain.NormalizeWallet(ev.Wallet)
		if wallet == "" || ev.Price == 0 {
			continue
		}
		if outcome != nil && (ev.OutcomeIndex == nil || *ev.OutcomeIndex != *outcome) {
			continue
		}

		acc := levels[ev.Price]
		if acc == nil {
			acc = &priceLevelAcc{
				stats:       PriceLevelStats{Price: ev.Price},
				buyWallets:  make(map[string]struct{}),
				sellWallets: make(map[string]struct{}),
			}
			levels[ev.Price] = acc
		}

		acc.stats.TotalTrades++
		acc.stats.TotalVolume += ev.Size
		switch ev.Side {
		case domain.SideBuy:
			acc.stats.BuyTrades++
			acc.stats.BuyVolume += ev.Size
			acc.buyWallets[wallet] = struct{}{}
		case domain.SideSell:
			acc.stats.SellTrades++
			acc.stats.SellVolume += ev.Size
			acc.sellWallets[wallet] = struct{}{}
		}
	}

	out := make([]PriceLevelStats, 0, len(levels))
	for _, acc := range levels {
		out = append(out, acc.finish())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// finish collapses the wallet sets into counts and the sorted participant
// list.
func (acc *priceLevelAcc) finish() PriceLevelStats {
	st := acc.stats
	st.BuyWallets = len(acc.buyWallets)
	st.SellWallets = len(acc.sellWallets)

	all := make(map[string]struct{}, len(acc.buyWallets)+len(acc.sellWallets))
	for w := range acc.buyWallets {
		all[w] = struct{}{}
	}
	for w := range acc.sellWallets {
		all[w] = struct{}{}
	}
	st.Wallets = make([]string, 0, len(all))
	for w := range all {
		st.Wallets = append(st.Wallets, w)
	}
	sort.Strings(st.Wallets)
	return st
}

// LookupPrice finds the aggregate for an exact price. When no trade printed
// at that price it returns domain.ErrNotFound together with up to maxNearest
// levels ranked by absolute distance from the requested price, so callers
// can offer "closest prices" instead of a bare miss.
func LookupPrice(events []domain.TradeEvent, price float64, outcome *int, maxNearest int) (PriceLevelStats, []PriceLevelStats, error) {
	levels := AggregateByPrice(events, outcome)

	for _, lvl := range levels {
		if lvl.Price == price {
			return lvl, nil, nil
		}
	}

	nearest := make([]PriceLevelStats, len(levels))
	copy(nearest, levels)
	sort.Slice(nearest, func(i, j int) bool {
		di := math.Abs(nearest[i].Price - price)
		dj := math.Abs(nearest[j].Price - price)
		if di != dj {
			return di < dj
		}
		return nearest[i].Price < nearest[j].Price
	})
	if maxNearest > 0 && len(nearest) > maxNearest {
		nearest = nearest[:maxNearest]
	}
	return PriceLevelStats{}, nearest, domain.ErrNotFound
}
