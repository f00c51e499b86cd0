package domain

// Data keys recognised in an inbound push message.
const (
	PushKeyTitle          = "titulo"
	PushKeyBody           = "mensaje"
	PushKeyKind           = "tipo"
	PushKeyNotificationID = "notificacionId"
	PushKeyReferenceID    = "referenciaId"
	PushKeyReferenceModel = "referenciaModelo"
)

// DefaultPushTitle is used when a push message carries no title at all.
const DefaultPushTitle = "Edumon"

// PushMessage is an inbound push delivery. Data is preferred over Notification.
type PushMessage struct {
	Data         map[string]string `json:"data,omitempty"`
	Notification *PushNotification `json:"notification,omitempty"`
}

// PushNotification is the title/body pair of a push message.
type PushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
