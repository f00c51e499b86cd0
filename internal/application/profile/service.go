package profile

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/edumon-sync/internal/domain"
	"github.com/edumon-sync/internal/pkg/validate"
	"go.uber.org/zap"
)

// Service handles the profile completion flow of the stored user.
type Service interface {
	Update(ctx context.Context, p domain.ProfileUpdate) (*domain.UserData, error)
	UploadPhoto(ctx context.Context, r io.Reader, filename, contentType string) (*domain.UserData, error)
	Completeness(ctx context.Context) (bool, error)
}

type sessionStore interface {
	UserData(ctx context.Context) (*domain.UserData, error)
	UpdateProfile(ctx context.Context, p domain.ProfileUpdate) error
	IsProfileComplete(ctx context.Context) (bool, error)
}

type photoStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	store  sessionStore
	photos photoStore
	log    *zap.Logger
}

func NewService(store sessionStore, photos photoStore, log *zap.Logger) Service {
	return &service{store: store, photos: photos, log: log}
}

func (s *service) Update(ctx context.Context, p domain.ProfileUpdate) (*domain.UserData, error) {
	if p.Empty() {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	if _, err := s.currentUser(ctx); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	return s.store.UserData(ctx)
}

func (s *service) UploadPhoto(ctx context.Context, r io.Reader, filename, contentType string) (*domain.UserData, error) {
	u, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	key := "profiles/" + u.ID + "/" + SanitizeFilename(filename)
	url, err := s.photos.Upload(ctx, key, r, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if err := s.store.UpdateProfile(ctx, domain.ProfileUpdate{Photo: &url}); err != nil {
		if delErr := s.photos.Delete(ctx, key); delErr != nil {
			s.log.Warn("orphaned profile photo", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return s.store.UserData(ctx)
}

func (s *service) Completeness(ctx context.Context) (bool, error) {
	return s.store.IsProfileComplete(ctx)
}

func (s *service) currentUser(ctx context.Context) (*domain.UserData, error) {
	u, err := s.store.UserData(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("no stored user: %w", domain.ErrUnauthorized)
	}
	return u, nil
}

// SanitizeFilename keeps the base name of filename with every character
// outside [a-z0-9._-] replaced by '_'.
func SanitizeFilename(filename string) string {
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(filename, `\`, "/")))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), ".")
	if name == "" || name == "_" {
		return "photo"
	}
	return name
}
