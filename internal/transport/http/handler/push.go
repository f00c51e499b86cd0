package handler

import (
	"context"
	"net/http"

	"github.com/edumon-sync/internal/application/device"
	"github.com/edumon-sync/internal/domain"
	"github.com/edumon-sync/internal/pkg/validate"
)

type pushReceiver interface {
	HandlePush(ctx context.Context, msg domain.PushMessage) (domain.LocalNotification, bool)
}

// PushHandler receives push deliveries and push-token refreshes forwarded by
// the platform bridge.
type PushHandler struct {
	engine pushReceiver
	device device.Service
}

func NewPushHandler(engine pushReceiver, device device.Service) *PushHandler {
	return &PushHandler{engine: engine, device: device}
}

func (h *PushHandler) Message(w http.ResponseWriter, r *http.Request) {
	var msg domain.PushMessage
	if !decodeJSON(w, r, &msg) {
		return
	}
	n, shown := h.engine.HandlePush(r.Context(), msg)
	env := PushEnvelope{Displayed: shown}
	if shown {
		env.Notification = &n
	}
	writeJSON(w, http.StatusAccepted, env)
}

func (h *PushHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req domain.FCMTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, err)
		return
	}
	if err := h.device.RefreshToken(r.Context(), req.Token); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "push token registered"})
}
