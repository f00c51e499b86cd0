package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*PrefsRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewPrefsRepo(rdb, "edumon_prefs"), mr
}

func TestPrefsRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t)

	require.NoError(t, repo.Update(ctx, map[string]string{"user_token": "tok", "is_logged_in": "true"}, nil))

	fields, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"user_token": "tok", "is_logged_in": "true"}, fields)
	assert.Equal(t, "tok", mr.HGet("edumon:session:edumon_prefs", "user_token"))
}

func TestPrefsRepo_UpdateSetAndRemove(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	require.NoError(t, repo.Update(ctx, map[string]string{"user_token": "tok", "padre_id": "p1", "user_name": "Ana"}, nil))

	require.NoError(t, repo.Update(ctx, map[string]string{"is_logged_in": "false"}, []string{"user_token", "padre_id"}))

	fields, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"user_name": "Ana", "is_logged_in": "false"}, fields)
}

func TestPrefsRepo_Clear(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t)
	require.NoError(t, repo.Update(ctx, map[string]string{"user_token": "tok"}, nil))

	require.NoError(t, repo.Clear(ctx))

	fields, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.False(t, mr.Exists("edumon:session:edumon_prefs"))
}

func TestPrefsRepo_LoadPropagatesError(t *testing.T) {
	repo, mr := newTestRepo(t)
	mr.Close()

	_, err := repo.Load(context.Background())
	assert.Error(t, err)
}

func TestNewClient_PingFailure(t *testing.T) {
	_, err := NewClient(context.Background(), "127.0.0.1:1", "", 0)
	assert.ErrorContains(t, err, "redis ping")
}
