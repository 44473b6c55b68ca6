package filetree

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quangkl1998/polymarket/internal/domain"
)

func testEvent(wallet string, size, price float64, outcome int, ts int64) domain.TradeEvent {
	return domain.TradeEvent{
		ReceivedAt:       time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC),
		SessionID:        "btc-up-or-down-3pm-et",
		Wallet:           wallet,
		Side:             domain.SideBuy,
		Size:             size,
		Price:            price,
		OutcomeIndex:     &outcome,
		OnChainTimestamp: &ts,
		TxHash:           "0xdeadbeef",
	}
}

func TestWriterLoader_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	w := NewWriter(dir, 1, slog.Default())

	events := []domain.TradeEvent{
		testEvent("0xAAA", 10, 0.40, 0, 100),
		testEvent("0xbbb", 5, 0.55, 1, 200),
	}
	for _, ev := range events {
		if err := w.Append(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	loaded, err := NewLoader(dir, slog.Default()).Load(ctx, "btc-up-or-down-3pm-et")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("loaded %d events, want 2", len(loaded))
	}
	// Wallets come back normalized.
	if loaded[0].Wallet != "0xaaa" {
		t.Fatalf("wallet = %q, want lowercased 0xaaa", loaded[0].Wallet)
	}
	if loaded[0].Size != 10 || loaded[0].Price != 0.40 {
		t.Fatalf("first event = %+v", loaded[0])
	}
	if loaded[1].OutcomeIndex == nil || *loaded[1].OutcomeIndex != 1 {
		t.Fatalf("outcome index lost: %+v", loaded[1])
	}
}

func TestWriter_CreatesWalletSheets(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	w := NewWriter(dir, 1, slog.Default())

	if err := w.Append(ctx, testEvent("0xAAA", 10, 0.40, 0, 100)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sheet := filepath.Join(dir, "btc-up-or-down-3pm-et", "2026-08-28", "wallets", "0xaaa.csv")
	if _, err := os.Stat(sheet); err != nil {
		t.Fatalf("wallet sheet missing: %v", err)
	}

	loaded, err := NewLoader(dir, slog.Default()).Load(context.Background(), sheet)
	if err != nil {
		t.Fatalf("load sheet: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Wallet != "0xaaa" || loaded[0].Size != 10 {
		t.Fatalf("sheet round trip = %+v", loaded)
	}
}

func TestLoader_DropsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	day := filepath.Join(dir, "some-session", "2026-08-28")
	if err := os.MkdirAll(day, 0o755); err != nil {
		t.Fatal(err)
	}

	content := `{"session_id":"some-session","wallet":"0xAAA","side":"BUY","size":3,"price":0.5}
this line is not json
{"session_id":"some-session","wallet":"0xbbb","side":"SELL","size":1,"price":0.6}
`
	if err := os.WriteFile(filepath.Join(day, "trades.jsonl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := NewLoader(dir, slog.Default()).Load(context.Background(), "some-session")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d events, want 2 (malformed line dropped, not fatal)", len(loaded))
	}
}

func TestLoader_UnknownSession(t *testing.T) {
	_, err := NewLoader(t.TempDir(), slog.Default()).Load(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected an error for an unknown session")
	}
}

func TestWriter_CloseSessionReleasesHandles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	w := NewWriter(dir, 1, slog.Default())

	if err := w.Append(ctx, testEvent("0xaaa", 1, 0.5, 0, 100)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.CloseSession(ctx, "btc-up-or-down-3pm-et"); err != nil {
		t.Fatalf("close session: %v", err)
	}

	// Appending after the session closed reopens the files cleanly.
	if err := w.Append(ctx, testEvent("0xaaa", 2, 0.6, 0, 200)); err != nil {
		t.Fatalf("append after close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	loaded, err := NewLoader(dir, slog.Default()).Load(ctx, "btc-up-or-down-3pm-et")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d events, want 2", len(loaded))
	}
}
