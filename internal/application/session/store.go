package session

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/edumon-sync/internal/domain"
)

// DefaultRecentLimit bounds the recently-seen notification id list.
const DefaultRecentLimit = 100

// Backend is the durable storage of the session record.
// Update must apply set and remove as one atomic write.
type Backend interface {
	Load(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, set map[string]string, remove []string) error
	Clear(ctx context.Context) error
}

// Store is the single place for auth and session data. Point reads go to the
// backend; Watch* streams are fed from the last known record.
type Store struct {
	backend     Backend
	recentLimit int

	mu     sync.Mutex
	cache  record
	loaded bool
	writes uint64 // bumped by every local write; guards cache against stale loads
	subs   map[*subscriber]struct{}
}

type Option func(*Store)

// WithRecentLimit sets the capacity of the recently-seen notification list.
func WithRecentLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		recentLimit: DefaultRecentLimit,
		cache:       record{},
		subs:        make(map[*subscriber]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ── token ────────────────────────────────────────────────────────────────────

// SaveToken stores the bearer token and marks the session as logged in.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("save token: empty token: %w", domain.ErrBadRequest)
	}
	return s.update(ctx, "save token", map[string]string{
		domain.KeyToken:    token,
		domain.KeyLoggedIn: formatBool(true),
	}, nil)
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token(ctx context.Context) (string, error) {
	r, err := s.read(ctx, "get token")
	if err != nil {
		return "", err
	}
	return r.str(domain.KeyToken), nil
}

func (s *Store) WatchToken(ctx context.Context) (<-chan string, error) {
	return watch(ctx, s, func(r record) string { return r.str(domain.KeyToken) })
}

func (s *Store) IsLoggedIn(ctx context.Context) (bool, error) {
	r, err := s.read(ctx, "get logged in")
	if err != nil {
		return false, err
	}
	return r.boolean(domain.KeyLoggedIn, false), nil
}

func (s *Store) WatchLoggedIn(ctx context.Context) (<-chan bool, error) {
	return watch(ctx, s, func(r record) bool { return r.boolean(domain.KeyLoggedIn, false) })
}

// ── user data ────────────────────────────────────────────────────────────────

// SaveUserData writes every identity field in one update. Optional fields
// that are nil, and empty parent id or status, are removed.
func (s *Store) SaveUserData(ctx context.Context, u domain.UserData) error {
	set := map[string]string{
		domain.KeyUserID:   u.ID,
		domain.KeyName:     u.Name,
		domain.KeyLastName: u.LastName,
		domain.KeyEmail:    u.Email,
		domain.KeyPhone:    u.Phone,
		domain.KeyRole:     u.Role,
	}
	var remove []string
	setOrRemove := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		} else {
			remove = append(remove, key)
		}
	}
	setOrRemove(domain.KeyCedula, u.Cedula)
	setOrRemove(domain.KeyPhoto, u.Photo)
	setOrRemove(domain.KeyParentID, nonEmpty(u.ParentID))
	setOrRemove(domain.KeyStatus, nonEmpty(u.Status))
	return s.update(ctx, "save user data", set, remove)
}

// UserData returns nil without error when any required field is missing.
func (s *Store) UserData(ctx context.Context) (*domain.UserData, error) {
	r, err := s.read(ctx, "get user data")
	if err != nil {
		return nil, err
	}
	return r.userData(), nil
}

func (s *Store) WatchUserData(ctx context.Context) (<-chan *domain.UserData, error) {
	return watch(ctx, s, record.userData)
}

func (s *Store) UserName(ctx context.Context) (string, error) {
	r, err := s.read(ctx, "get user name")
	if err != nil {
		return "", err
	}
	return r.str(domain.KeyName), nil
}

// UpdateProfile writes only the fields present in p.
func (s *Store) UpdateProfile(ctx context.Context, p domain.ProfileUpdate) error {
	set := map[string]string{}
	put := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	put(domain.KeyName, p.Name)
	put(domain.KeyLastName, p.LastName)
	put(domain.KeyCedula, p.Cedula)
	put(domain.KeyEmail, p.Email)
	put(domain.KeyPhone, p.Phone)
	put(domain.KeyPhoto, p.Photo)
	put(domain.KeyStatus, p.Status)
	if len(set) == 0 {
		return nil
	}
	return s.update(ctx, "update profile", set, nil)
}

// IsProfileComplete is true iff both cedula and photo are non-blank.
func (s *Store) IsProfileComplete(ctx context.Context) (bool, error) {
	r, err := s.read(ctx, "get profile completeness")
	if err != nil {
		return false, err
	}
	return r.profileComplete(), nil
}

func (s *Store) FirstLogin(ctx context.Context) (bool, error) {
	r, err := s.read(ctx, "get first login")
	if err != nil {
		return false, err
	}
	return r.boolean(domain.KeyFirstLogin, false), nil
}

func (s *Store) SetFirstLogin(ctx context.Context, first bool) error {
	return s.update(ctx, "set first login", map[string]string{domain.KeyFirstLogin: formatBool(first)}, nil)
}

// ── push registration ────────────────────────────────────────────────────────

// SaveFCMToken stores a new push token and marks it as not yet sent.
func (s *Store) SaveFCMToken(ctx context.Context, token string) error {
	return s.update(ctx, "save fcm token", map[string]string{
		domain.KeyFCMToken:     token,
		domain.KeyFCMTokenSent: formatBool(false),
	}, nil)
}

func (s *Store) FCMToken(ctx context.Context) (string, error) {
	r, err := s.read(ctx, "get fcm token")
	if err != nil {
		return "", err
	}
	return r.str(domain.KeyFCMToken), nil
}

func (s *Store) MarkFCMTokenSent(ctx context.Context, sent bool) error {
	return s.update(ctx, "mark fcm token sent", map[string]string{domain.KeyFCMTokenSent: formatBool(sent)}, nil)
}

func (s *Store) FCMTokenSent(ctx context.Context) (bool, error) {
	r, err := s.read(ctx, "get fcm token sent")
	if err != nil {
		return false, err
	}
	return r.boolean(domain.KeyFCMTokenSent, false), nil
}

// ── notifications ────────────────────────────────────────────────────────────

func (s *Store) SaveLastSeenNotificationID(ctx context.Context, id string) error {
	return s.update(ctx, "save last seen notification", map[string]string{domain.KeyLastNotificationID: id}, nil)
}

// LastSeenNotificationID returns "" when nothing has been seen yet.
func (s *Store) LastSeenNotificationID(ctx context.Context) (string, error) {
	r, err := s.read(ctx, "get last seen notification")
	if err != nil {
		return "", err
	}
	return r.str(domain.KeyLastNotificationID), nil
}

// RecentNotificationIDs returns the recently displayed ids, newest first.
func (s *Store) RecentNotificationIDs(ctx context.Context) ([]string, error) {
	r, err := s.read(ctx, "get recent notifications")
	if err != nil {
		return nil, err
	}
	return r.recentIDs(), nil
}

// RememberNotificationIDs puts ids (given newest first) at the head of the
// recently-seen list, dropping duplicates and trimming to the limit.
func (s *Store) RememberNotificationIDs(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	r, err := s.read(ctx, "remember notifications")
	if err != nil {
		return err
	}
	merged := make([]string, 0, len(ids)+s.recentLimit)
	seen := make(map[string]struct{}, cap(merged))
	candidates := append(append([]string{}, ids...), r.recentIDs()...)
	for _, id := range candidates {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
		if len(merged) == s.recentLimit {
			break
		}
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("remember notifications: %w", err)
	}
	return s.update(ctx, "remember notifications", map[string]string{domain.KeyRecentNotificationIDs: string(raw)}, nil)
}

// NotificationsEnabled defaults to true when the user never changed it.
func (s *Store) NotificationsEnabled(ctx context.Context) (bool, error) {
	r, err := s.read(ctx, "get notifications enabled")
	if err != nil {
		return false, err
	}
	return r.boolean(domain.KeyNotificationsEnabled, true), nil
}

func (s *Store) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return s.update(ctx, "set notifications enabled", map[string]string{domain.KeyNotificationsEnabled: formatBool(enabled)}, nil)
}

// ── lifecycle ────────────────────────────────────────────────────────────────

// ClearAll wipes the whole record (full logout).
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.mu.Lock()
	s.writes++
	s.cache = record{}
	s.loaded = true
	s.mu.Unlock()
	s.notify()
	return nil
}

// ClearTokenOnly logs out but keeps the profile fields for the next login.
// The push token stays, marked unsent, so the next login binds it to the new
// account.
func (s *Store) ClearTokenOnly(ctx context.Context) error {
	return s.update(ctx, "clear token",
		map[string]string{
			domain.KeyLoggedIn:     formatBool(false),
			domain.KeyFCMTokenSent: formatBool(false),
		},
		[]string{domain.KeyToken, domain.KeyParentID},
	)
}

// Snapshot returns the decoded whole record.
func (s *Store) Snapshot(ctx context.Context) (domain.SessionState, error) {
	r, err := s.read(ctx, "get session")
	if err != nil {
		return domain.SessionState{}, err
	}
	return r.state(), nil
}

// ── internals ────────────────────────────────────────────────────────────────

// read loads the record from the backend and refreshes the cache, waking
// watchers when someone else changed the record in the meantime.
func (s *Store) read(ctx context.Context, op string) (record, error) {
	s.mu.Lock()
	writes := s.writes
	s.mu.Unlock()

	raw, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r := record(raw)
	if r == nil {
		r = record{}
	}
	s.mu.Lock()
	changed := false
	// A local write that landed during Load is newer than raw.
	if s.writes == writes {
		changed = s.loaded && !maps.Equal(s.cache, r)
		s.cache = r.clone()
		s.loaded = true
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return r, nil
}

func (s *Store) update(ctx context.Context, op string, set map[string]string, remove []string) error {
	if err := s.backend.Update(ctx, set, remove); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	s.writes++
	loaded := s.loaded
	if loaded {
		s.cache.apply(set, remove)
	}
	s.mu.Unlock()
	if !loaded {
		// First contact with the backend: take its full view.
		if _, err := s.read(ctx, op); err != nil {
			return err
		}
	}
	s.notify()
	return nil
}

func (s *Store) current() record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.clone()
}

func nonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
