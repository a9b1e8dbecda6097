package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const healthCheckTimeout = 2 * time.Second

// HealthHandler serves liveness/readiness. With a DB pinger configured it returns 503
// while the database is unreachable.
type HealthHandler struct {
	DB     Pinger
	Logger *slog.Logger
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, map[string]string{"status": "ok"}

	if h != nil && h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			if h.Logger != nil {
				h.Logger.WarnContext(r.Context(), "health check: database unreachable", slog.Any("error", err))
			}
			status, body = http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"}
		}
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		return
	}
	WriteJSON(w, status, body)
}
