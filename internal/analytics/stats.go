package analytics

import (
	"sort"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// WalletStats is the side-split count and volume summary for one wallet.
// Events without an outcome index still count here; only profit matching
// excludes them.
type WalletStats struct {
	Wallet       string  `json:"wallet"`
	TotalTrades  int     `json:"total_trades"`
	BuyCount     int     `json:"buy_count"`
	SellCount    int     `json:"sell_count"`
	TotalVolume  float64 `json:"total_volume"`
	BuyVolume    float64 `json:"buy_volume"`
	SellVolume   float64 `json:"sell_volume"`
	AvgBuyPrice  float64 `json:"avg_buy_price"`
	AvgSellPrice float64 `json:"avg_sell_price"`
}

// ComputeWalletStats folds the wallet's trades into counts, volumes, and
// volume-weighted average prices per side. Ordering of the input is
// irrelevant. An empty set yields the zero report.
func ComputeWalletStats(events []domain.TradeEvent, wallet string) WalletStats {
	key := domain.NormalizeWallet(wallet)
	stats := WalletStats{Wallet: key}

	var buyValue, sellValue float64
	for _, ev := range events {
		if domain.NormalizeWallet(ev.Wallet) != key {
			continue
		}
		stats.TotalTrades++
		stats.TotalVolume += ev.Size
		switch ev.Side {
		case domain.SideBuy:
			stats.BuyCount++
			stats.BuyVolume += ev.Size
			buyValue += ev.Size * ev.Price
		case domain.SideSell:
			stats.SellCount++
			stats.SellVolume += ev.Size
			sellValue += ev.Size * ev.Price
		}
	}

	stats.AvgBuyPrice = vwap(buyValue, stats.BuyVolume)
	stats.AvgSellPrice = vwap(sellValue, stats.SellVolume)
	return stats
}

// RankByTradeCount returns per-wallet stats ordered by trade count
// descending, ties broken by wallet ascending. A limit <= 0 returns all
// wallets.
func RankByTradeCount(events []domain.TradeEvent, limit int) []WalletStats {
	return rankStats(events, limit, func(a, b WalletStats) bool {
		if a.TotalTrades != b.TotalTrades {
			return a.TotalTrades > b.TotalTrades
		}
		return a.Wallet < b.Wallet
	})
}

// RankByVolume returns per-wallet stats ordered by total volume descending,
// ties broken by wallet ascending. A limit <= 0 returns all wallets.
func RankByVolume(events []domain.TradeEvent, limit int) []WalletStats {
	return rankStats(events, limit, func(a, b WalletStats) bool {
		if a.TotalVolume != b.TotalVolume {
			return a.TotalVolume > b.TotalVolume
		}
		return a.Wallet < b.Wallet
	})
}

func rankStats(events []domain.TradeEvent, limit int, less func(a, b WalletStats) bool) []WalletStats {
	ranked := make([]WalletStats, 0)
	for _, w := range walletUniverse(events) {
		ranked = append(ranked, ComputeWalletStats(events, w))
	}
	sort.Slice(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
