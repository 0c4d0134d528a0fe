package handlers

import (
	"net/http"

	"github.com/eshaffer321/amex-reconcile/internal/api/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	*Base
}

// NewHealthHandler creates a health handler. A nil repository reports the
// journal as disabled.
func NewHealthHandler(base *Base) *HealthHandler {
	return &HealthHandler{Base: base}
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, dto.NewHealthResponse(h.repo != nil))
}
