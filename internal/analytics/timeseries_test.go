package analytics

import (
	"reflect"
	"testing"

	"github.com/quangkl1998/polymarket/internal/domain"
)

func TestTrackByInterval_WindowsAnchoredAtFirstTrade(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 1, 10, idx(0), at(0)),
		trade("0xa", domain.SideBuy, 1, 20, idx(0), at(30)),
		trade("0xa", domain.SideBuy, 1, 30, idx(0), at(90)),
	}

	snaps := TrackByInterval(events, 60, nil)

	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2 (empty windows are omitted)", len(snaps))
	}
	if snaps[0].BucketStart != 0 || !almost(snaps[0].AvgPrice, 15) || !almost(snaps[0].Volume, 2) {
		t.Fatalf("bucket[0,60) = %+v, want start 0, price 15, volume 2", snaps[0])
	}
	if snaps[1].BucketStart != 60 || !almost(snaps[1].AvgPrice, 30) || !almost(snaps[1].Volume, 1) {
		t.Fatalf("bucket[60,120) = %+v, want start 60, price 30, volume 1", snaps[1])
	}
}

func TestTrackByInterval_ExcludesTimestamplessTrades(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 1, 10, idx(0), nil),
		trade("0xa", domain.SideBuy, 1, 20, idx(0), at(5)),
	}

	snaps := TrackByInterval(events, 60, nil)

	if len(snaps) != 1 || snaps[0].Trades != 1 {
		t.Fatalf("snaps = %+v, want only the timestamped trade", snaps)
	}
}

func TestTrackByInterval_NonPositiveInterval(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 1, 10, idx(0), at(0)),
	}
	if snaps := TrackByInterval(events, 0, nil); snaps != nil {
		t.Fatalf("interval 0 must yield nil, got %+v", snaps)
	}
}

func TestTrackByInterval_OutcomeFilter(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 1, 10, idx(0), at(0)),
		trade("0xa", domain.SideBuy, 1, 40, idx(1), at(0)),
	}

	snaps := TrackByInterval(events, 60, idx(1))

	if len(snaps) != 1 || !almost(snaps[0].AvgPrice, 40) {
		t.Fatalf("snaps = %+v, want only the outcome-1 trade", snaps)
	}
}

func TestTrackByTimestamp_SideSplitWithZeroFill(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideBuy, 2, 0.40, idx(0), at(100)),
		trade("0xb", domain.SideBuy, 2, 0.60, idx(0), at(100)),
		trade("0xc", domain.SideSell, 1, 0.50, idx(0), at(200)),
	}

	snaps := TrackByTimestamp(events, nil)

	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(snaps))
	}

	first := snaps[0]
	if first.Timestamp != 100 {
		t.Fatalf("timestamp = %d, want 100", first.Timestamp)
	}
	if !almost(first.Buy.AvgPrice, 0.50) || first.Buy.Wallets != 2 || first.Buy.Trades != 2 {
		t.Fatalf("buy side = %+v", first.Buy)
	}
	// No sells at ts 100: the sell side is zero-filled, not omitted.
	if first.Sell.AvgPrice != 0 || first.Sell.Wallets != 0 || first.Sell.Trades != 0 || first.Sell.Volume != 0 {
		t.Fatalf("sell side should be all zeroes, got %+v", first.Sell)
	}
	if !almost(first.TotalVolume, 4) || first.TotalTrades != 2 {
		t.Fatalf("combined totals = %v/%d, want 4/2", first.TotalVolume, first.TotalTrades)
	}

	second := snaps[1]
	if second.Timestamp != 200 || !almost(second.Sell.AvgPrice, 0.50) || second.Sell.Wallets != 1 {
		t.Fatalf("second snapshot = %+v", second)
	}
}

func TestTrackByTimestamp_Idempotent(t *testing.T) {
	events := []domain.TradeEvent{
		trade("0xa", domain.SideSell, 1, 0.50, idx(0), at(200)),
		trade("0xa", domain.SideBuy, 2, 0.40, idx(0), at(100)),
	}

	first := TrackByTimestamp(events, nil)
	second := TrackByTimestamp(events, nil)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls diverged:\n%+v\n%+v", first, second)
	}
	if events[0].Side != domain.SideSell {
		t.Fatal("input slice was reordered by the tracker")
	}
}
