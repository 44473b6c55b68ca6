package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quangkl1998/polymarket/internal/analytics"
	"github.com/quangkl1998/polymarket/internal/domain"
)

// LeaderboardHandler ranks a session's wallets by profit, trade count, or
// volume.
type LeaderboardHandler struct {
	loader domain.TradeLoader
	prices domain.OutcomePriceCache // may be nil
	logger *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler. prices may be nil.
func NewLeaderboardHandler(loader domain.TradeLoader, prices domain.OutcomePriceCache, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		loader: loader,
		prices: prices,
		logger: logHandler(logger, "leaderboard"),
	}
}

// Rank returns the top wallets under the requested ordering.
// GET /api/sessions/{id}/leaderboard?by=profit|trades|volume&limit=N
func (h *LeaderboardHandler) Rank(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	by := r.URL.Query().Get("by")
	if by == "" {
		by = "profit"
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := h.loader.Load(r.Context(), sessionID)
	if err != nil {
		writeLoadError(w, h.logger, err)
		return
	}

	var ranking any
	switch by {
	case "profit":
		current := cachedPrices(r, h.prices, h.logger, sessionID, events)
		ranking = analytics.RankByProfit(events, limit, current)
	case "trades":
		ranking = analytics.RankByTradeCount(events, limit)
	case "volume":
		ranking = analytics.RankByVolume(events, limit)
	default:
		writeError(w, http.StatusBadRequest, "by must be one of profit, trades, volume")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":  sessionID,
		"by":          by,
		"leaderboard": ranking,
	})
}
