package handlers

import (
	"context"
	"net/http"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports the state of the ledger store and, when it can be
// pinged, the analytics sink.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := h.svc.Ping(ctx); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks["database"] = map[string]any{"status": "unhealthy", "error": err.Error()}
	} else {
		checks["database"] = map[string]any{"status": "healthy"}
	}

	switch sink := h.analytics.(type) {
	case nil:
		checks["clickhouse"] = map[string]any{"status": "not_configured"}
	case pinger:
		if err := sink.Ping(ctx); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks["clickhouse"] = map[string]any{"status": "unhealthy", "error": err.Error()}
		} else {
			checks["clickhouse"] = map[string]any{"status": "healthy"}
		}
	default:
		checks["clickhouse"] = map[string]any{"status": "mock"}
	}

	if h.pubsub != nil {
		checks["events"] = map[string]any{"status": "healthy", "subscribers": h.pubsub.SubscriberCount()}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// Liveness handles Kubernetes liveness probes. It never checks
// dependencies.
func (h *APIHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness handles Kubernetes readiness probes. The ledger store is the
// only critical dependency.
func (h *APIHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"reason":    "database_unavailable",
			"timestamp": time.Now().Unix(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
