package notification

import (
	"context"
	"fmt"

	"github.com/edumon-sync/internal/domain"
)

// Service exposes the backend notification list to the local API using the
// stored session token.
type Service interface {
	List(ctx context.Context, page, limit int, unreadOnly bool) (*domain.NotificationPage, error)
	MarkRead(ctx context.Context, notificationID string) error
	Delete(ctx context.Context, notificationID string) error
}

type tokenSource interface {
	Token(ctx context.Context) (string, error)
}

type notificationAPI interface {
	notificationLister
	MarkRead(ctx context.Context, token, id string) error
	DeleteNotification(ctx context.Context, token, id string) error
}

type service struct {
	tokens tokenSource
	api    notificationAPI
}

func NewService(tokens tokenSource, api notificationAPI) Service {
	return &service{tokens: tokens, api: api}
}

func (s *service) List(ctx context.Context, page, limit int, unreadOnly bool) (*domain.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.ListNotifications(ctx, token, page, limit, unreadOnly)
}

func (s *service) MarkRead(ctx context.Context, notificationID string) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}
	return s.api.MarkRead(ctx, token, notificationID)
}

func (s *service) Delete(ctx context.Context, notificationID string) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}
	return s.api.DeleteNotification(ctx, token, notificationID)
}

func (s *service) token(ctx context.Context) (string, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("no session token: %w", domain.ErrUnauthorized)
	}
	return token, nil
}
