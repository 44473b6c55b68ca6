package handler

import (
	"log/slog"
	"net/http"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// TradesHandler lists the raw trade events of a session. When a database
// mirror is available it serves the query from there so pagination and
// time ranges run server-side; otherwise it pages over the session files.
type TradesHandler struct {
	loader domain.TradeLoader
	store  domain.TradeStore // may be nil
	logger *slog.Logger
}

// NewTradesHandler creates a TradesHandler. store may be nil.
func NewTradesHandler(loader domain.TradeLoader, store domain.TradeStore, logger *slog.Logger) *TradesHandler {
	return &TradesHandler{
		loader: loader,
		store:  store,
		logger: logHandler(logger, "trades"),
	}
}

// ListTrades returns a page of events for a session.
// GET /api/sessions/{id}/trades
func (h *TradesHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	opts := parseListOpts(r)

	var (
		events []domain.TradeEvent
		err    error
	)
	if h.store != nil {
		events, err = h.store.ListBySession(r.Context(), sessionID, opts)
	} else {
		events, err = h.loadPage(r, sessionID, opts)
	}
	if err != nil {
		writeLoadError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"count":      len(events),
		"trades":     events,
	})
}

// loadPage applies the list options to file-loaded events.
func (h *TradesHandler) loadPage(r *http.Request, sessionID string, opts domain.ListOpts) ([]domain.TradeEvent, error) {
	events, err := h.loader.Load(r.Context(), sessionID)
	if err != nil {
		return nil, err
	}

	if opts.Since != nil || opts.Until != nil {
		filtered := events[:0:0]
		for _, ev := range events {
			if opts.Since != nil && ev.ReceivedAt.Before(*opts.Since) {
				continue
			}
			if opts.Until != nil && ev.ReceivedAt.After(*opts.Until) {
				continue
			}
			filtered = append(filtered, ev)
		}
		events = filtered
	}

	if opts.Offset >= len(events) {
		return nil, nil
	}
	events = events[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(events) {
		events = events[:opts.Limit]
	}
	return events, nil
}
