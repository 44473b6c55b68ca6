package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quangkl1998/polymarket/internal/analytics"
	"github.com/quangkl1998/polymarket/internal/domain"
)

// HistoryHandler serves price history over a session's on-chain
// timestamps.
type HistoryHandler struct {
	loader domain.TradeLoader
	logger *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(loader domain.TradeLoader, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		loader: loader,
		logger: logHandler(logger, "history"),
	}
}

// GetHistory returns interval-bucketed snapshots when ?interval=N is
// given, or per-timestamp buy/sell detail when it is omitted.
// GET /api/sessions/{id}/history?interval=N&outcome=N
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	outcome, err := parseOutcome(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "outcome must be an integer")
		return
	}

	events, err := h.loader.Load(r.Context(), sessionID)
	if err != nil {
		writeLoadError(w, h.logger, err)
		return
	}

	if v := r.URL.Query().Get("interval"); v != "" {
		interval, err := strconv.ParseInt(v, 10, 64)
		if err != nil || interval <= 0 {
			writeError(w, http.StatusBadRequest, "interval must be a positive integer of seconds")
			return
		}
		snapshots := analytics.TrackByInterval(events, interval, outcome)
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": sessionID,
			"interval":   interval,
			"count":      len(snapshots),
			"snapshots":  snapshots,
		})
		return
	}

	detail := analytics.TrackByTimestamp(events, outcome)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"count":      len(detail),
		"snapshots":  detail,
	})
}
