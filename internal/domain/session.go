package domain

// Storage keys of the session record. The names are shared with the mobile
// client so an exported record can be read by either side.
const (
	KeyToken                 = "user_token"
	KeyUserID                = "user_id"
	KeyParentID              = "padre_id"
	KeyName                  = "user_name"
	KeyLastName              = "user_lastname"
	KeyCedula                = "user_cedula"
	KeyEmail                 = "user_email"
	KeyPhone                 = "user_phone"
	KeyRole                  = "user_rol"
	KeyPhoto                 = "user_photo"
	KeyStatus                = "user_status"
	KeyLoggedIn              = "is_logged_in"
	KeyFirstLogin            = "primer_inicio_sesion"
	KeyLastNotificationID    = "last_notification_id"
	KeyFCMToken              = "fcm_token"
	KeyFCMTokenSent          = "fcm_token_sent"
	KeyNotificationsEnabled  = "notifications_enabled"
	KeyRecentNotificationIDs = "recent_notification_ids"
)

// ProfileKeys are the identity fields kept by a soft logout.
var ProfileKeys = []string{
	KeyUserID, KeyName, KeyLastName, KeyCedula, KeyEmail,
	KeyPhone, KeyRole, KeyPhoto, KeyStatus,
}

// SessionState is the decoded view of the whole session record.
type SessionState struct {
	Token                  *string   `json:"-"`
	User                   *UserData `json:"user,omitempty"`
	IsLoggedIn             bool      `json:"is_logged_in"`
	FirstLogin             bool      `json:"first_login"`
	LastSeenNotificationID *string   `json:"last_seen_notification_id,omitempty"`
	FCMToken               *string   `json:"-"`
	FCMTokenSent           bool      `json:"fcm_token_sent"`
	NotificationsEnabled   bool      `json:"notifications_enabled"`
	ProfileComplete        bool      `json:"profile_complete"`
}
