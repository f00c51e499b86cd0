package handler

import (
	"context"
	"net/http"

	"github.com/edumon-sync/internal/domain"
	"github.com/edumon-sync/internal/pkg/validate"
)

type settingsStore interface {
	SetNotificationsEnabled(ctx context.Context, enabled bool) error
}

type SettingsHandler struct {
	store settingsStore
}

func NewSettingsHandler(store settingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

func (h *SettingsHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	var req domain.NotificationSettings
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, err)
		return
	}
	if err := h.store.SetNotificationsEnabled(r.Context(), *req.Enabled); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
