package handler

import (
	"log/slog"
	"net/http"

	"github.com/quangkl1998/polymarket/internal/analytics"
	"github.com/quangkl1998/polymarket/internal/domain"
)

// WalletHandler serves per-wallet aggregation over a session's events.
type WalletHandler struct {
	loader domain.TradeLoader
	prices domain.OutcomePriceCache // may be nil
	logger *slog.Logger
}

// NewWalletHandler creates a WalletHandler. prices may be nil, in which
// case profit responses carry no unrealized component.
func NewWalletHandler(loader domain.TradeLoader, prices domain.OutcomePriceCache, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		loader: loader,
		prices: prices,
		logger: logHandler(logger, "wallets"),
	}
}

// GetStats returns buy/sell volume and price averages for one wallet.
// GET /api/sessions/{id}/wallets/{wallet}/stats
func (h *WalletHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	wallet := domain.NormalizeWallet(r.PathValue("wallet"))

	events, err := h.loader.Load(r.Context(), sessionID)
	if err != nil {
		writeLoadError(w, h.logger, err)
		return
	}

	stats := analytics.ComputeWalletStats(events, wallet)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"stats":      stats,
	})
}

// GetProfit returns the FIFO profit breakdown for one wallet. Current
// outcome prices come from the cache when one is configured.
// GET /api/sessions/{id}/wallets/{wallet}/profit
func (h *WalletHandler) GetProfit(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	wallet := domain.NormalizeWallet(r.PathValue("wallet"))

	events, err := h.loader.Load(r.Context(), sessionID)
	if err != nil {
		writeLoadError(w, h.logger, err)
		return
	}

	current := cachedPrices(r, h.prices, h.logger, sessionID, events)
	profit := analytics.ComputeWalletProfit(events, wallet, current)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"profit":     profit,
	})
}
