package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	state func() string
}

// NewHealthHandler takes a reporter of the poll loop state, which is echoed
// by the "status" action.
func NewHealthHandler(state func() string) *HealthHandler {
	return &HealthHandler{state: state}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "status":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: h.state()})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
