package domain

import (
	"strings"
	"time"
)

// Notification is a backend notification as returned by the Edumon API.
type Notification struct {
	NotificationID string  `json:"_id"`
	UserID         string  `json:"usuarioId"`
	Title          string  `json:"titulo"`
	Body           string  `json:"mensaje"`
	Kind           string  `json:"tipo"`
	Read           bool    `json:"leido"`
	Timestamp      string  `json:"fecha"` // ISO-8601 UTC
	ReferenceID    *string `json:"referenciaId,omitempty"`
	ReferenceModel *string `json:"referenciaModelo,omitempty"`
}

// NotificationPage is one page of the notification listing.
type NotificationPage struct {
	Notifications []Notification `json:"notificaciones"`
	Total         int            `json:"total,omitempty"`
	Page          int            `json:"pagina,omitempty"`
	TotalPages    int            `json:"totalPaginas,omitempty"`
}

// Kind is the category of a notification. Values are the backend's wire tags.
type Kind string

const (
	KindTask       Kind = "tarea"
	KindSubmission Kind = "entrega"
	KindGrade      Kind = "calificacion"
	KindReminder   Kind = "recordatorio"
	KindEvent      Kind = "evento"
	KindGeneric    Kind = "info"
)

var kindAliases = map[string]Kind{
	"tarea":        KindTask,
	"task":         KindTask,
	"entrega":      KindSubmission,
	"submission":   KindSubmission,
	"calificacion": KindGrade,
	"calificación": KindGrade,
	"grade":        KindGrade,
	"recordatorio": KindReminder,
	"reminder":     KindReminder,
	"evento":       KindEvent,
	"event":        KindEvent,
}

// ParseKind maps a wire tag to a Kind. Unknown or empty tags are generic.
func ParseKind(tag string) Kind {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return k
	}
	return KindGeneric
}

// Subtitle is the category line shown under the notification title.
func (k Kind) Subtitle() string {
	switch k {
	case KindTask:
		return "Nueva tarea"
	case KindSubmission:
		return "Nueva entrega"
	case KindGrade:
		return "Calificación"
	case KindReminder:
		return "Recordatorio"
	case KindEvent:
		return "Evento"
	default:
		return "Notificación"
	}
}

// Source tells which path produced a local notification.
type Source string

const (
	SourcePoll Source = "poll"
	SourcePush Source = "push"
)

// LocalNotification is what gets displayed to the user and broadcast to observers.
type LocalNotification struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Kind           Kind      `json:"kind"`
	Subtitle       string    `json:"subtitle"`
	ReferenceID    *string   `json:"reference_id,omitempty"`
	ReferenceModel *string   `json:"reference_model,omitempty"`
	Source         Source    `json:"source"`
	ReceivedAt     time.Time `json:"received_at"`
}

// FromNotification builds the local form of a polled backend notification.
func FromNotification(n Notification, now time.Time) LocalNotification {
	kind := ParseKind(n.Kind)
	return LocalNotification{
		ID:             n.NotificationID,
		Title:          n.Title,
		Body:           n.Body,
		Kind:           kind,
		Subtitle:       kind.Subtitle(),
		ReferenceID:    n.ReferenceID,
		ReferenceModel: n.ReferenceModel,
		Source:         SourcePoll,
		ReceivedAt:     now,
	}
}
