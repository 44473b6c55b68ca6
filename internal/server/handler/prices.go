package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quangkl1998/polymarket/internal/analytics"
	"github.com/quangkl1998/polymarket/internal/domain"
)

// nearestLevels caps the suggestions returned when an exact price lookup
// misses.
const nearestLevels = 2

// PricesHandler serves per-price-level aggregation over a session.
type PricesHandler struct {
	loader domain.TradeLoader
	logger *slog.Logger
}

// NewPricesHandler creates a PricesHandler.
func NewPricesHandler(loader domain.TradeLoader, logger *slog.Logger) *PricesHandler {
	return &PricesHandler{
		loader: loader,
		logger: logHandler(logger, "prices"),
	}
}

// ListLevels aggregates trades by exact price level. With ?price=X it
// instead looks up one level, answering with the nearest levels when no
// trade happened at exactly that price.
// GET /api/sessions/{id}/prices?outcome=N&price=X
func (h *PricesHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
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

	if v := r.URL.Query().Get("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "price must be a number")
			return
		}
		h.lookup(w, sessionID, events, price, outcome)
		return
	}

	levels := analytics.AggregateByPrice(events, outcome)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"count":      len(levels),
		"levels":     levels,
	})
}

func (h *PricesHandler) lookup(w http.ResponseWriter, sessionID string, events []domain.TradeEvent, price float64, outcome *int) {
	level, nearest, err := analytics.LookupPrice(events, price, outcome, nearestLevels)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"session_id": sessionID,
				"price":      price,
				"error":      "no trades at this price",
				"nearest":    nearest,
			})
			return
		}
		h.logger.Error("price lookup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"level":      level,
	})
}
