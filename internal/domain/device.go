package domain

// FCMTokenRequest is the body of a push-token refresh.
type FCMTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// NotificationSettings toggles local display of pushed notifications.
type NotificationSettings struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
