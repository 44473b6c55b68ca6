package analytics

import (
	"testing"

	"github.com/quangkl1998/polymarket/internal/domain"
)

func TestComputeWalletProfit_FullRoundTrip(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideBuy, 10, 0.40, idx(0), at(100)),
		trade("0xabc", domain.SideSell, 10, 0.60, idx(0), at(200)),
	}

	got := ComputeWalletProfit(events, "0xabc", nil)

	if !almost(got.RealizedProfit, 2.00) {
		t.Fatalf("realized = %v, want 2.00", got.RealizedProfit)
	}
	if got.OpenPosition != 0 {
		t.Fatalf("open position = %v, want 0", got.OpenPosition)
	}
	if !almost(got.TotalCost, 4.00) || !almost(got.TotalRevenue, 6.00) {
		t.Fatalf("cost/revenue = %v/%v, want 4.00/6.00", got.TotalCost, got.TotalRevenue)
	}
}

func TestComputeWalletProfit_PartialFill(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideBuy, 10, 0.40, idx(0), at(100)),
		trade("0xabc", domain.SideSell, 4, 0.70, idx(0), at(200)),
	}

	got := ComputeWalletProfit(events, "0xabc", nil)

	if !almost(got.RealizedProfit, 1.20) {
		t.Fatalf("realized = %v, want 1.20", got.RealizedProfit)
	}
	if !almost(got.OpenPosition, 6) {
		t.Fatalf("open position = %v, want 6", got.OpenPosition)
	}
	// The surviving lot keeps its original basis.
	if !almost(got.Outcomes[0].AvgOpenCost, 0.40) {
		t.Fatalf("avg open cost = %v, want 0.40", got.Outcomes[0].AvgOpenCost)
	}
}

func TestComputeWalletProfit_ShortSellNoBasis(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideSell, 5, 0.50, idx(0), at(100)),
	}

	got := ComputeWalletProfit(events, "0xabc", nil)

	if got.RealizedProfit != 0 {
		t.Fatalf("realized = %v, want 0 for uncovered short", got.RealizedProfit)
	}
	if !almost(got.OpenPosition, -5) {
		t.Fatalf("open position = %v, want -5", got.OpenPosition)
	}
}

func TestComputeWalletProfit_BuyAfterShortOpensFreshLot(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideSell, 5, 0.50, idx(0), at(100)),
		trade("0xabc", domain.SideBuy, 5, 0.30, idx(0), at(200)),
	}

	got := ComputeWalletProfit(events, "0xabc", nil)

	// The buy nets the position arithmetic back to zero but never covers
	// the short, so nothing is realized.
	if got.RealizedProfit != 0 {
		t.Fatalf("realized = %v, want 0", got.RealizedProfit)
	}
	if got.OpenPosition != 0 {
		t.Fatalf("open position = %v, want 0", got.OpenPosition)
	}
}

func TestComputeWalletProfit_UnrealizedRequiresLongAndPrice(t *testing.T) {
	short := []domain.TradeEvent{
		trade("0xabc", domain.SideSell, 5, 0.50, idx(0), at(100)),
	}
	got := ComputeWalletProfit(short, "0xabc", map[int]float64{0: 0.90})
	if got.UnrealizedProfit != 0 {
		t.Fatalf("unrealized = %v, want 0 for short position", got.UnrealizedProfit)
	}

	long := []domain.TradeEvent{
		trade("0xabc", domain.SideBuy, 10, 0.40, idx(0), at(100)),
	}
	got = ComputeWalletProfit(long, "0xabc", nil)
	if got.UnrealizedProfit != 0 {
		t.Fatalf("unrealized = %v, want 0 without a current price", got.UnrealizedProfit)
	}

	got = ComputeWalletProfit(long, "0xabc", map[int]float64{0: 0.55})
	if !almost(got.UnrealizedProfit, 1.5) {
		t.Fatalf("unrealized = %v, want 1.5", got.UnrealizedProfit)
	}
	if !almost(got.TotalProfit, 1.5) {
		t.Fatalf("total profit = %v, want 1.5", got.TotalProfit)
	}
}

func TestComputeWalletProfit_SkipsMissingOutcome(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideBuy, 10, 0.40, nil, at(100)),
		trade("0xabc", domain.SideSell, 10, 0.60, nil, at(200)),
	}

	got := ComputeWalletProfit(events, "0xabc", nil)

	if got.RealizedProfit != 0 || got.TotalCost != 0 || got.TotalRevenue != 0 {
		t.Fatalf("trades without outcome index must not contribute: %+v", got)
	}
	if len(got.Outcomes) != 0 {
		t.Fatalf("outcomes = %d, want 0", len(got.Outcomes))
	}
}

func TestComputeWalletProfit_OrdersByChainTimestamp(t *testing.T) {
	// The sell appears first in the slice but later on chain; FIFO must
	// still match it against the buy.
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideSell, 10, 0.60, idx(0), at(200)),
		trade("0xabc", domain.SideBuy, 10, 0.40, idx(0), at(100)),
	}

	got := ComputeWalletProfit(events, "0xabc", nil)

	if !almost(got.RealizedProfit, 2.00) {
		t.Fatalf("realized = %v, want 2.00", got.RealizedProfit)
	}
}

func TestComputeWalletProfit_MissingTimestampSortsFirst(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideSell, 10, 0.60, idx(0), at(50)),
		trade("0xabc", domain.SideBuy, 10, 0.40, idx(0), nil),
	}

	got := ComputeWalletProfit(events, "0xabc", nil)

	if !almost(got.RealizedProfit, 2.00) {
		t.Fatalf("realized = %v, want 2.00 (timestampless buy sorts as 0)", got.RealizedProfit)
	}
}

func TestComputeWalletProfit_AveragesCoverAllTrades(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideBuy, 10, 0.40, idx(0), at(100)),
		trade("0xabc", domain.SideBuy, 10, 0.60, idx(0), at(200)),
		trade("0xabc", domain.SideSell, 15, 0.80, idx(0), at(300)),
	}

	got := ComputeWalletProfit(events, "0xabc", nil)
	out := got.Outcomes[0]

	// Historical average over every buy, independent of what the queue
	// still holds.
	if !almost(out.AvgBuyPrice, 0.50) {
		t.Fatalf("avg buy price = %v, want 0.50", out.AvgBuyPrice)
	}
	if !almost(out.AvgSellPrice, 0.80) {
		t.Fatalf("avg sell price = %v, want 0.80", out.AvgSellPrice)
	}
	// FIFO basis of the 5 units remaining is the second lot's price.
	if !almost(out.AvgOpenCost, 0.60) {
		t.Fatalf("avg open cost = %v, want 0.60", out.AvgOpenCost)
	}
	// 10*(0.80-0.40) + 5*(0.80-0.60) = 5.00
	if !almost(out.RealizedProfit, 5.00) {
		t.Fatalf("realized = %v, want 5.00", out.RealizedProfit)
	}
}

func TestComputeWalletProfit_SeparatesOutcomes(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideBuy, 10, 0.40, idx(0), at(100)),
		trade("0xabc", domain.SideSell, 10, 0.60, idx(1), at(200)),
	}

	got := ComputeWalletProfit(events, "0xabc", nil)

	if got.RealizedProfit != 0 {
		t.Fatalf("realized = %v, want 0 across disjoint outcomes", got.RealizedProfit)
	}
	if len(got.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(got.Outcomes))
	}
	if got.Outcomes[0].OutcomeIndex != 0 || got.Outcomes[1].OutcomeIndex != 1 {
		t.Fatalf("outcomes not ordered by index: %+v", got.Outcomes)
	}
}

func TestComputeWalletProfit_CaseInsensitiveWallet(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xABC", domain.SideBuy, 10, 0.40, idx(0), at(100)),
		trade("0xabc", domain.SideSell, 10, 0.60, idx(0), at(200)),
	}

	got := ComputeWalletProfit(events, "0xAbC", nil)

	if !almost(got.RealizedProfit, 2.00) {
		t.Fatalf("realized = %v, want 2.00 (wallet casing must not split the ledger)", got.RealizedProfit)
	}
}

func TestComputeWalletProfit_EmptyInput(t *testing.T) {
	got := ComputeWalletProfit(nil, "0xabc", nil)
	if got.RealizedProfit != 0 || got.OpenPosition != 0 || len(got.Outcomes) != 0 {
		t.Fatalf("empty input must yield the zero report: %+v", got)
	}
}

func TestRankByProfit(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xaaa", domain.SideBuy, 10, 0.40, idx(0), at(100)),
		trade("0xaaa", domain.SideSell, 10, 0.60, idx(0), at(200)),
		trade("0xbbb", domain.SideBuy, 10, 0.40, idx(0), at(100)),
		trade("0xbbb", domain.SideSell, 10, 0.90, idx(0), at(200)),
		trade("0xccc", domain.SideBuy, 10, 0.80, idx(0), at(100)),
		trade("0xccc", domain.SideSell, 10, 0.40, idx(0), at(200)),
	}

	ranked := RankByProfit(events, 2, nil)

	if len(ranked) != 2 {
		t.Fatalf("len = %d, want 2", len(ranked))
	}
	if ranked[0].Wallet != "0xbbb" || ranked[1].Wallet != "0xaaa" {
		t.Fatalf("order = [%s %s], want [0xbbb 0xaaa]", ranked[0].Wallet, ranked[1].Wallet)
	}
}

func TestComputeWalletProfit_Idempotent(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xabc", domain.SideSell, 4, 0.70, idx(0), at(200)),
		trade("0xabc", domain.SideBuy, 10, 0.40, idx(0), at(100)),
	}

	first := ComputeWalletProfit(events, "0xabc", nil)
	second := ComputeWalletProfit(events, "0xabc", nil)

	if first.RealizedProfit != second.RealizedProfit || first.OpenPosition != second.OpenPosition {
		t.Fatalf("repeated calls diverged: %+v vs %+v", first, second)
	}
	// The input slice order must survive: the engine sorts a copy.
	if events[0].Side != domain.SideSell {
		t.Fatal("input slice was reordered by the engine")
	}
}
