package analytics

import (
	"testing"

	"github.com/quangkl1998/polymarket/internal/domain"
)

func TestComputeWalletStats_SplitsBySide(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideBuy, 3, 0.40, idx(0), at(100)),
		trade("0xabc", domain.SideBuy, 1, 0.60, nil, at(150)),
		trade("0xabc", domain.SideSell, 2, 0.50, idx(0), at(200)),
		trade("0xother", domain.SideBuy, 99, 0.90, idx(0), at(100)),
	}

	got := ComputeWalletStats(events, "0xabc")

	if got.TotalTrades != 3 || got.BuyCount != 2 || got.SellCount != 1 {
		t.Fatalf("counts = %d/%d/%d, want 3/2/1", got.TotalTrades, got.BuyCount, got.SellCount)
	}
	if !almost(got.TotalVolume, got.BuyVolume+got.SellVolume) {
		t.Fatalf("total volume %v != buy %v + sell %v", got.TotalVolume, got.BuyVolume, got.SellVolume)
	}
	// VWAP over both buys: (3*0.40 + 1*0.60) / 4
	if !almost(got.AvgBuyPrice, 0.45) {
		t.Fatalf("avg buy price = %v, want 0.45", got.AvgBuyPrice)
	}
	if !almost(got.AvgSellPrice, 0.50) {
		t.Fatalf("avg sell price = %v, want 0.50", got.AvgSellPrice)
	}
}

func TestComputeWalletStats_ZeroVolumeAverages(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideBuy, 0, 0.40, idx(0), at(100)),
	}

	got := ComputeWalletStats(events, "0xabc")

	if got.AvgBuyPrice != 0 || got.AvgSellPrice != 0 {
		t.Fatalf("zero-volume averages must be 0, got %v/%v", got.AvgBuyPrice, got.AvgSellPrice)
	}
	if got.TotalTrades != 1 {
		t.Fatalf("zero-size trade still counts, got %d trades", got.TotalTrades)
	}
}

func TestComputeWalletStats_CaseInsensitive(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xABC", domain.SideBuy, 3, 0.40, idx(0), at(100)),
		trade("0xabc", domain.SideBuy, 1, 0.40, idx(0), at(200)),
	}

	got := ComputeWalletStats(events, "0xAbc")

	if got.BuyCount != 2 {
		t.Fatalf("buy count = %d, want 2 (casing must not split the wallet)", got.BuyCount)
	}
}

func TestComputeWalletStats_EmptyInput(t *testing.T) {
	got := ComputeWalletStats(nil, "0xabc")
	if got.TotalTrades != 0 || got.TotalVolume != 0 {
		t.Fatalf("empty input must yield the zero report: %+v", got)
	}
}

func TestRankByTradeCount(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xaaa", domain.SideBuy, 1, 0.40, idx(0), at(100)),
		trade("0xbbb", domain.SideBuy, 1, 0.40, idx(0), at(100)),
		trade("0xbbb", domain.SideSell, 1, 0.50, idx(0), at(200)),
	}

	ranked := RankByTradeCount(events, 0)

	if len(ranked) != 2 {
		t.Fatalf("len = %d, want 2", len(ranked))
	}
	if ranked[0].Wallet != "0xbbb" || ranked[0].TotalTrades != 2 {
		t.Fatalf("top = %+v, want 0xbbb with 2 trades", ranked[0])
	}
}

func TestRankByVolume_Limit(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xaaa", domain.SideBuy, 10, 0.40, idx(0), at(100)),
		trade("0xbbb", domain.SideBuy, 20, 0.40, idx(0), at(100)),
		trade("0xccc", domain.SideBuy, 5, 0.40, idx(0), at(100)),
	}

	ranked := RankByVolume(events, 1)

	if len(ranked) != 1 || ranked[0].Wallet != "0xbbb" {
		t.Fatalf("ranked = %+v, want only 0xbbb", ranked)
	}
}
