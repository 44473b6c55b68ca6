package analytics

import (
	"errors"
	"testing"

	"github.com/quangkl1998/polymarket/internal/domain"
)

func TestAggregateByPrice_SingleLevel(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 3, 50, idx(0), at(100)),
		trade("0xb", domain.SideSell, 2, 50, idx(0), at(200)),
	}

	levels := AggregateByPrice(events, nil)

	if len(levels) != 1 {
		t.Fatalf("levels = %d, want 1", len(levels))
	}
	lvl := levels[0]
	if lvl.Price != 50 {
		t.Fatalf("price = %v, want 50", lvl.Price)
	}
	if !almost(lvl.BuyVolume, 3) || !almost(lvl.SellVolume, 2) || !almost(lvl.TotalVolume, 5) {
		t.Fatalf("volumes = %v/%v/%v, want 3/2/5", lvl.BuyVolume, lvl.SellVolume, lvl.TotalVolume)
	}
	if lvl.BuyWallets != 1 || lvl.SellWallets != 1 {
		t.Fatalf("wallet counts = %d/%d, want 1/1", lvl.BuyWallets, lvl.SellWallets)
	}
	if len(lvl.Wallets) != 2 {
		t.Fatalf("participants = %v, want two wallets", lvl.Wallets)
	}
}

func TestAggregateByPrice_DistinctWalletsNotTrades(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 1, 0.5, idx(0), at(100)),
		trade("0xA", domain.SideBuy, 1, 0.5, idx(0), at(200)),
	}

	levels := AggregateByPrice(events, nil)

	if levels[0].BuyTrades != 2 {
		t.Fatalf("buy trades = %d, want 2", levels[0].BuyTrades)
	}
	if levels[0].BuyWallets != 1 {
		t.Fatalf("buy wallets = %d, want 1 (case-insensitive identity)", levels[0].BuyWallets)
	}
}

func TestAggregateByPrice_OutcomeFilter(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 1, 0.5, idx(0), at(100)),
		trade("0xb", domain.SideBuy, 1, 0.5, idx(1), at(100)),
		trade("0xc", domain.SideBuy, 1, 0.5, nil, at(100)),
	}

	levels := AggregateByPrice(events, idx(1))

	if len(levels) != 1 || levels[0].BuyTrades != 1 {
		t.Fatalf("levels = %+v, want exactly the outcome-1 trade", levels)
	}
}

func TestAggregateByPrice_ExcludesMissingWalletOrPrice(t *testing.T) {
	events := []domain.TradeEvent{
		trade("", domain.SideBuy, 1, 0.5, idx(0), at(100)),
		trade("0xa", domain.SideBuy, 1, 0, idx(0), at(100)),
		trade("0xa", domain.SideBuy, 1, 0.5, idx(0), at(100)),
	}

	levels := AggregateByPrice(events, nil)

	if len(levels) != 1 || levels[0].BuyTrades != 1 {
		t.Fatalf("levels = %+v, want a single fully-populated trade", levels)
	}
}

func TestAggregateByPrice_SortedAscending(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 1, 0.7, idx(0), at(100)),
		trade("0xa", domain.SideBuy, 1, 0.3, idx(0), at(100)),
		trade("0xa", domain.SideBuy, 1, 0.5, idx(0), at(100)),
	}

	levels := AggregateByPrice(events, nil)

	for i := 1; i < len(levels); i++ {
		if levels[i-1].Price >= levels[i].Price {
			t.Fatalf("levels not ascending: %+v", levels)
		}
	}
}

func TestLookupPrice_Exact(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 3, 0.40, idx(0), at(100)),
	}

	lvl, nearest, err := LookupPrice(events, 0.40, nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nearest != nil {
		t.Fatalf("nearest should be nil on exact hit, got %+v", nearest)
	}
	if lvl.Price != 0.40 || !almost(lvl.BuyVolume, 3) {
		t.Fatalf("level = %+v", lvl)
	}
}

func TestLookupPrice_NearestOnMiss(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 1, 0.30, idx(0), at(100)),
		trade("0xa", domain.SideBuy, 1, 0.44, idx(0), at(100)),
		trade("0xa", domain.SideBuy, 1, 0.90, idx(0), at(100)),
	}

	_, nearest, err := LookupPrice(events, 0.42, nil, 2)

	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(nearest) != 2 {
		t.Fatalf("nearest = %d levels, want 2", len(nearest))
	}
	if nearest[0].Price != 0.44 || nearest[1].Price != 0.30 {
		t.Fatalf("nearest order = [%v %v], want [0.44 0.30]", nearest[0].Price, nearest[1].Price)
	}
}
