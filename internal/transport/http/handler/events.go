package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edumon-sync/internal/domain"
)

// keepAlive is how often an idle event stream sends a comment line.
const keepAlive = 30 * time.Second

type eventSource interface {
	Subscribe(ctx context.Context) <-chan domain.LocalNotification
}

// EventsHandler streams displayed notifications as server-sent events.
type EventsHandler struct {
	events eventSource
}

func NewEventsHandler(events eventSource) *EventsHandler {
	return &EventsHandler{events: events}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	ch := h.events.Subscribe(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case n, ok := <-ch:
			if !ok {
				return
			}
			raw, err := json.Marshal(n)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID, raw); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}
