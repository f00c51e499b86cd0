package auth

import (
	"context"
	"fmt"

	"github.com/edumon-sync/internal/domain"
	"github.com/edumon-sync/internal/infrastructure/edumon"
	"github.com/edumon-sync/internal/pkg/validate"
	"go.uber.org/zap"
)

// Service logs the user in and out of the Edumon backend.
type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.SessionState, error)
	// Logout clears the whole session when full is set, otherwise only the
	// token, keeping the profile for the next login.
	Logout(ctx context.Context, full bool) error
	Session(ctx context.Context) (*domain.SessionState, error)
}

type authAPI interface {
	Login(ctx context.Context, email, password string) (*edumon.LoginResult, error)
}

type sessionStore interface {
	SaveToken(ctx context.Context, token string) error
	SaveUserData(ctx context.Context, u domain.UserData) error
	SetFirstLogin(ctx context.Context, first bool) error
	MarkFCMTokenSent(ctx context.Context, sent bool) error
	ClearAll(ctx context.Context) error
	ClearTokenOnly(ctx context.Context) error
	Snapshot(ctx context.Context) (domain.SessionState, error)
}

type pushSyncer interface {
	Sync(ctx context.Context) error
}

type service struct {
	api   authAPI
	store sessionStore
	push  pushSyncer
	log   *zap.Logger
}

func NewService(api authAPI, store sessionStore, push pushSyncer, log *zap.Logger) Service {
	return &service{api: api, store: store, push: push, log: log}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.SessionState, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	res, err := s.api.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.store.SaveUserData(ctx, res.User); err != nil {
		return nil, err
	}
	if err := s.store.SaveToken(ctx, res.Token); err != nil {
		return nil, err
	}
	if err := s.store.SetFirstLogin(ctx, res.FirstLogin); err != nil {
		return nil, err
	}
	// The backend binds the push token to the bearer that registered it.
	if err := s.store.MarkFCMTokenSent(ctx, false); err != nil {
		return nil, err
	}
	if err := s.push.Sync(ctx); err != nil {
		s.log.Warn("push token sync after login failed", zap.Error(err))
	}
	s.log.Info("logged in", zap.String("user_id", res.User.ID), zap.Bool("first_login", res.FirstLogin))
	return s.Session(ctx)
}

func (s *service) Logout(ctx context.Context, full bool) error {
	if full {
		return s.store.ClearAll(ctx)
	}
	return s.store.ClearTokenOnly(ctx)
}

func (s *service) Session(ctx context.Context) (*domain.SessionState, error) {
	st, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
