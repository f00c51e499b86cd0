package device

import (
	"context"
	"errors"
	"testing"

	"github.com/edumon-sync/internal/application/session"
	"github.com/edumon-sync/internal/domain"
	"github.com/edumon-sync/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRegistrar struct{ mock.Mock }

func (m *mockRegistrar) RegisterFCMToken(ctx context.Context, token, fcmToken string) error {
	return m.Called(ctx, token, fcmToken).Error(0)
}

func newStore(t *testing.T, seed map[string]string) *session.Store {
	t.Helper()
	repo := memory.NewPrefsRepo()
	if seed != nil {
		require.NoError(t, repo.Update(context.Background(), seed, nil))
	}
	return session.NewStore(repo)
}

func sent(t *testing.T, s *session.Store) bool {
	t.Helper()
	v, err := s.FCMTokenSent(context.Background())
	require.NoError(t, err)
	return v
}

func TestRefreshToken_RegistersWhenLoggedIn(t *testing.T) {
	store := newStore(t, map[string]string{domain.KeyToken: "tok"})
	api := &mockRegistrar{}
	api.On("RegisterFCMToken", mock.Anything, "tok", "fcm-1").Return(nil).Once()

	require.NoError(t, NewService(store, api).RefreshToken(context.Background(), "fcm-1"))

	api.AssertExpectations(t)
	assert.True(t, sent(t, store))
}

func TestRefreshToken_LoggedOutKeepsTokenUnsent(t *testing.T) {
	store := newStore(t, nil)
	api := &mockRegistrar{}

	require.NoError(t, NewService(store, api).RefreshToken(context.Background(), "fcm-1"))

	api.AssertNotCalled(t, "RegisterFCMToken", mock.Anything, mock.Anything, mock.Anything)
	tok, err := store.FCMToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fcm-1", tok)
	assert.False(t, sent(t, store))
}

func TestRefreshToken_Empty(t *testing.T) {
	err := NewService(newStore(t, nil), &mockRegistrar{}).RefreshToken(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRefreshToken_SameTokenAlreadySentIsNoop(t *testing.T) {
	store := newStore(t, map[string]string{
		domain.KeyToken:        "tok",
		domain.KeyFCMToken:     "fcm-1",
		domain.KeyFCMTokenSent: "true",
	})
	api := &mockRegistrar{}

	require.NoError(t, NewService(store, api).RefreshToken(context.Background(), "fcm-1"))

	api.AssertNotCalled(t, "RegisterFCMToken", mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, sent(t, store))
}

func TestRefreshToken_NewTokenResetsSentFlag(t *testing.T) {
	store := newStore(t, map[string]string{
		domain.KeyToken:        "tok",
		domain.KeyFCMToken:     "fcm-1",
		domain.KeyFCMTokenSent: "true",
	})
	api := &mockRegistrar{}
	api.On("RegisterFCMToken", mock.Anything, "tok", "fcm-2").Return(errors.New("offline"))

	err := NewService(store, api).RefreshToken(context.Background(), "fcm-2")

	assert.ErrorContains(t, err, "register push token: offline")
	assert.False(t, sent(t, store))
}

func TestSync_NoPushToken(t *testing.T) {
	api := &mockRegistrar{}
	require.NoError(t, NewService(newStore(t, map[string]string{domain.KeyToken: "tok"}), api).Sync(context.Background()))
	api.AssertNotCalled(t, "RegisterFCMToken", mock.Anything, mock.Anything, mock.Anything)
}
