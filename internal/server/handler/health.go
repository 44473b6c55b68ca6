package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// ComponentCheck names a backing service and how to ping it.
type ComponentCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint, including per-component
// connectivity and the timestamp of the last recorded trade when a
// database mirror is configured.
type HealthHandler struct {
	logger *slog.Logger
	checks []ComponentCheck
	store  domain.TradeStore // may be nil
}

// NewHealthHandler creates a HealthHandler. store may be nil.
func NewHealthHandler(logger *slog.Logger, checks []ComponentCheck, store domain.TradeStore) *HealthHandler {
	return &HealthHandler{
		logger: logHandler(logger, "health"),
		checks: checks,
		store:  store,
	}
}

// HealthCheck responds with the overall status and per-component results.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	components := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			components[c.Name] = err.Error()
			status = "degraded"
			continue
		}
		components[c.Name] = "ok"
	}

	body := map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(components) > 0 {
		body["components"] = components
	}

	if h.store != nil {
		if last, err := h.store.GetLastTimestamp(ctx); err == nil && !last.IsZero() {
			body["last_event_at"] = last.UTC().Format(time.RFC3339)
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, body)
}
