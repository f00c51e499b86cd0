package device

import (
	"context"
	"fmt"
	"strings"

	"github.com/edumon-sync/internal/domain"
)

// Service keeps the device push token registered with the backend.
type Service interface {
	// RefreshToken stores a new push token and tries to register it.
	RefreshToken(ctx context.Context, fcmToken string) error
	// Sync registers the stored push token if it has not been sent yet.
	Sync(ctx context.Context) error
}

type sessionStore interface {
	Token(ctx context.Context) (string, error)
	FCMToken(ctx context.Context) (string, error)
	FCMTokenSent(ctx context.Context) (bool, error)
	SaveFCMToken(ctx context.Context, token string) error
	MarkFCMTokenSent(ctx context.Context, sent bool) error
}

type registrar interface {
	RegisterFCMToken(ctx context.Context, token, fcmToken string) error
}

type service struct {
	store sessionStore
	api   registrar
}

func NewService(store sessionStore, api registrar) Service {
	return &service{store: store, api: api}
}

func (s *service) RefreshToken(ctx context.Context, fcmToken string) error {
	fcmToken = strings.TrimSpace(fcmToken)
	if fcmToken == "" {
		return fmt.Errorf("empty push token: %w", domain.ErrBadRequest)
	}
	current, err := s.store.FCMToken(ctx)
	if err != nil {
		return err
	}
	if current != fcmToken {
		if err := s.store.SaveFCMToken(ctx, fcmToken); err != nil {
			return err
		}
	}
	return s.Sync(ctx)
}

func (s *service) Sync(ctx context.Context) error {
	fcmToken, err := s.store.FCMToken(ctx)
	if err != nil {
		return err
	}
	if fcmToken == "" {
		return nil
	}
	sent, err := s.store.FCMTokenSent(ctx)
	if err != nil {
		return err
	}
	if sent {
		return nil
	}
	token, err := s.store.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		// Registered on the next login.
		return nil
	}
	if err := s.api.RegisterFCMToken(ctx, token, fcmToken); err != nil {
		return fmt.Errorf("register push token: %w", err)
	}
	return s.store.MarkFCMTokenSent(ctx, true)
}
