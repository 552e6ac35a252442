package handlers

import (
	"context"
	"net/http"
	"time"
)

// Checker is a dependency the health endpoint pings.
type Checker interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Store Checker
}

func NewHealthHandler(store Checker) *HealthHandler {
	return &HealthHandler{Store: store}
}

// GET /health
func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := h.Store.Ping(ctx); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeEnvelope(w, code, Envelope{
		Success: code == http.StatusOK,
		Data: map[string]interface{}{
			"status":    status,
			"timestamp": time.Now().UTC(),
		},
	})
}
