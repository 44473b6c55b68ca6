package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// stubLoader serves a fixed event set for one known session.
type stubLoader struct {
	session string
	events  []domain.TradeEvent
}

func (s *stubLoader) Load(_ context.Context, identifier string) ([]domain.TradeEvent, error) {
	if identifier != s.session {
		return nil, fmt.Errorf("loader: session %q: %w", identifier, domain.ErrNotFound)
	}
	out := make([]domain.TradeEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureEvents() []domain.TradeEvent {
	outcome := 0
	ts1, ts2 := int64(100), int64(200)
	return []domain.TradeEvent{
		{
			ReceivedAt:       time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC),
			SessionID:        "btc-up-or-down-3pm-et",
			Wallet:           "0xaaa",
			Side:             domain.SideBuy,
			Size:             10,
			Price:            0.40,
			OutcomeIndex:     &outcome,
			OnChainTimestamp: &ts1,
		},
		{
			ReceivedAt:       time.Date(2026, 8, 28, 15, 5, 0, 0, time.UTC),
			SessionID:        "btc-up-or-down-3pm-et",
			Wallet:           "0xaaa",
			Side:             domain.SideSell,
			Size:             10,
			Price:            0.60,
			OutcomeIndex:     &outcome,
			OnChainTimestamp: &ts2,
		},
	}
}

func newMux(loader domain.TradeLoader) *http.ServeMux {
	logger := testLogger()
	mux := http.NewServeMux()
	trades := NewTradesHandler(loader, nil, logger)
	wallets := NewWalletHandler(loader, nil, logger)
	mux.HandleFunc("GET /api/sessions/{id}/trades", trades.ListTrades)
	mux.HandleFunc("GET /api/sessions/{id}/wallets/{wallet}/profit", wallets.GetProfit)
	return mux
}

func TestListTrades_ReturnsSessionEvents(t *testing.T) {
	loader := &stubLoader{session: "btc-up-or-down-3pm-et", events: fixtureEvents()}
	mux := newMux(loader)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/btc-up-or-down-3pm-et/trades", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		SessionID string              `json:"session_id"`
		Count     int                 `json:"count"`
		Trades    []domain.TradeEvent `json:"trades"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Count != 2 || len(body.Trades) != 2 {
		t.Fatalf("count = %d, trades = %d, want 2", body.Count, len(body.Trades))
	}
}

func TestListTrades_Pagination(t *testing.T) {
	loader := &stubLoader{session: "btc-up-or-down-3pm-et", events: fixtureEvents()}
	mux := newMux(loader)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/btc-up-or-down-3pm-et/trades?limit=1&offset=1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var body struct {
		Count  int                 `json:"count"`
		Trades []domain.TradeEvent `json:"trades"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	if body.Trades[0].Side != domain.SideSell {
		t.Fatalf("side = %q, want SELL", body.Trades[0].Side)
	}
}

func TestListTrades_UnknownSession(t *testing.T) {
	loader := &stubLoader{session: "btc-up-or-down-3pm-et"}
	mux := newMux(loader)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope/trades", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetProfit_RealizedRoundTrip(t *testing.T) {
	loader := &stubLoader{session: "btc-up-or-down-3pm-et", events: fixtureEvents()}
	mux := newMux(loader)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/btc-up-or-down-3pm-et/wallets/0xAAA/profit", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Profit struct {
			Wallet         string  `json:"wallet"`
			RealizedProfit float64 `json:"realized_profit"`
			OpenPosition   float64 `json:"open_position"`
		} `json:"profit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Profit.Wallet != "0xaaa" {
		t.Fatalf("wallet = %q, want 0xaaa", body.Profit.Wallet)
	}
	if got, want := body.Profit.RealizedProfit, 2.0; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("realized = %v, want %v", got, want)
	}
	if body.Profit.OpenPosition != 0 {
		t.Fatalf("open position = %v, want 0", body.Profit.OpenPosition)
	}
}
