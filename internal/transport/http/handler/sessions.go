package handler

import (
	"net/http"

	"github.com/edumon-sync/internal/application/auth"
	"github.com/edumon-sync/internal/domain"
)

// SessionHandler handles session endpoints.
type SessionHandler struct {
	svc auth.Service
}

func NewSessionHandler(svc auth.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{Session: st})
}

func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Session(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{Session: st})
}

// Logout clears the token only with ?mode=soft; any other mode clears everything.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	switch mode {
	case "", "full", "soft":
	default:
		writeError(w, http.StatusBadRequest, "mode must be full or soft")
		return
	}
	if err := h.svc.Logout(r.Context(), mode != "soft"); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}
