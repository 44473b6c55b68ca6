package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// writeJSON marshals v and writes it with the given status code. A failed
// marshal falls back to a plain 500 body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLoadError maps loader failures to status codes. Unknown sessions
// are 404s, everything else is a 500.
func writeLoadError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	logger.Error("load failed", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// parseListOpts extracts pagination and time-range parameters from the
// query string. Defaults: limit=100 (max 1000), offset=0. since/until are
// RFC 3339.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 100
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 1000 {
		limit = 1000
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	opts := domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}

	if v := q.Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			opts.Since = &t
		}
	}
	if v := q.Get("until"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			opts.Until = &t
		}
	}

	return opts
}

// parseOutcome reads the optional outcome query parameter. nil means no
// outcome filter.
func parseOutcome(r *http.Request) (*int, error) {
	v := r.URL.Query().Get("outcome")
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// logHandler attaches the handler name to slog output.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}

// cachedPrices resolves the latest cached price for every outcome index
// present in the event set. A nil cache, a miss, or a cache error yields
// nil, which suppresses the unrealized component downstream.
func cachedPrices(r *http.Request, cache domain.OutcomePriceCache, logger *slog.Logger, sessionID string, events []domain.TradeEvent) map[int]float64 {
	if cache == nil {
		return nil
	}

	seen := make(map[int]struct{})
	var indexes []int
	for _, ev := range events {
		if ev.OutcomeIndex == nil {
			continue
		}
		if _, ok := seen[*ev.OutcomeIndex]; ok {
			continue
		}
		seen[*ev.OutcomeIndex] = struct{}{}
		indexes = append(indexes, *ev.OutcomeIndex)
	}
	if len(indexes) == 0 {
		return nil
	}

	current, err := cache.GetPrices(r.Context(), sessionID, indexes)
	if err != nil {
		logger.Warn("price cache unavailable",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return current
}
