package session

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/edumon-sync/internal/domain"
)

// record is the flat key/value form of the session as stored by a Backend.
type record map[string]string

func (r record) clone() record {
	out := make(record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r record) str(key string) string {
	return r[key]
}

func (r record) optional(key string) *string {
	v, ok := r[key]
	if !ok {
		return nil
	}
	return &v
}

func (r record) boolean(key string, fallback bool) bool {
	v, ok := r[key]
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func (r record) has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := r[k]; !ok {
			return false
		}
	}
	return true
}

// userData returns nil unless every required identity field is present.
func (r record) userData() *domain.UserData {
	if !r.has(domain.KeyUserID, domain.KeyName, domain.KeyLastName, domain.KeyEmail, domain.KeyPhone, domain.KeyRole) {
		return nil
	}
	return &domain.UserData{
		ID:       r.str(domain.KeyUserID),
		ParentID: r.str(domain.KeyParentID),
		Name:     r.str(domain.KeyName),
		LastName: r.str(domain.KeyLastName),
		Cedula:   r.optional(domain.KeyCedula),
		Email:    r.str(domain.KeyEmail),
		Phone:    r.str(domain.KeyPhone),
		Role:     r.str(domain.KeyRole),
		Photo:    r.optional(domain.KeyPhoto),
		Status:   r.str(domain.KeyStatus),
	}
}

func (r record) profileComplete() bool {
	return strings.TrimSpace(r[domain.KeyCedula]) != "" && strings.TrimSpace(r[domain.KeyPhoto]) != ""
}

func (r record) recentIDs() []string {
	raw, ok := r[domain.KeyRecentNotificationIDs]
	if !ok || raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

func (r record) state() domain.SessionState {
	return domain.SessionState{
		Token:                  r.optional(domain.KeyToken),
		User:                   r.userData(),
		IsLoggedIn:             r.boolean(domain.KeyLoggedIn, false),
		FirstLogin:             r.boolean(domain.KeyFirstLogin, false),
		LastSeenNotificationID: r.optional(domain.KeyLastNotificationID),
		FCMToken:               r.optional(domain.KeyFCMToken),
		FCMTokenSent:           r.boolean(domain.KeyFCMTokenSent, false),
		NotificationsEnabled:   r.boolean(domain.KeyNotificationsEnabled, true),
		ProfileComplete:        r.profileComplete(),
	}
}

// apply mutates r in place the same way a Backend applies an Update.
func (r record) apply(set map[string]string, remove []string) {
	for _, k := range remove {
		delete(r, k)
	}
	for k, v := range set {
		r[k] = v
	}
}

func formatBool(b bool) string { return strconv.FormatBool(b) }
