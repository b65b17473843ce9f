package handler

import (
	"net/http"

	natsclient "github.com/prepview-ai/session-core/internal/nats"
	"github.com/prepview-ai/session-core/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	redis      *store.Redis
	natsClient *natsclient.Client
}

// NewHealthHandler creates a new health handler. Both dependencies are
// optional; only configured backends gate readiness.
func NewHealthHandler(redis *store.Redis, natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		redis:      redis,
		natsClient: natsClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.redis.Enabled() {
		if err := h.redis.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "redis not reachable",
			})
			return
		}
	}

	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
