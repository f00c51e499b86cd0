package http

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edumon-sync/internal/application/notification"
	"github.com/edumon-sync/internal/config"
	"github.com/edumon-sync/internal/domain"
	jwtinfra "github.com/edumon-sync/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct{}

func (stubEngine) HandlePush(context.Context, domain.PushMessage) (domain.LocalNotification, bool) {
	return domain.LocalNotification{ID: "local-1"}, true
}
func (stubEngine) State() notification.State { return notification.StateIdle }

type stubNotifications struct{}

func (stubNotifications) List(context.Context, int, int, bool) (*domain.NotificationPage, error) {
	return &domain.NotificationPage{}, nil
}
func (stubNotifications) MarkRead(context.Context, string) error { return nil }
func (stubNotifications) Delete(context.Context, string) error   { return nil }

func newTestRouter(t *testing.T, provider *jwtinfra.Provider) nethttp.Handler {
	t.Helper()
	h, stop := NewRouter(&config.Config{AllowedOrigins: []string{"*"}}, &Deps{
		Notifications: stubNotifications{},
		Engine:        stubEngine{},
		Events:        notification.NewEvents(),
		JWTProvider:   provider,
	})
	t.Cleanup(stop)
	return h
}

func serve(h nethttp.Handler, method, path, bearer string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_HealthIsPublic(t *testing.T) {
	p, err := jwtinfra.NewProvider(&config.Config{APIJWTSecret: "s", APIJWTExpiry: time.Hour})
	require.NoError(t, err)
	h := newTestRouter(t, p)

	rr := serve(h, nethttp.MethodGet, "/v1/health-check/status", "", nil)

	assert.Equal(t, nethttp.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "idle")
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	p, err := jwtinfra.NewProvider(&config.Config{APIJWTSecret: "s", APIJWTExpiry: time.Hour})
	require.NoError(t, err)
	h := newTestRouter(t, p)

	assert.Equal(t, nethttp.StatusUnauthorized, serve(h, nethttp.MethodGet, "/v1/notifications", "", nil).Code)

	tok, err := p.Sign("tray")
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, serve(h, nethttp.MethodGet, "/v1/notifications", tok, nil).Code)
}

func TestRouter_OpenWithoutProvider(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := serve(h, nethttp.MethodPut, "/v1/notifications/n-1/read", "", nil)

	assert.Equal(t, nethttp.StatusOK, rr.Code)
}

func TestRouter_PushMessage(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := serve(h, nethttp.MethodPost, "/v1/push/messages", "", strings.NewReader(`{"data":{"titulo":"X"}}`))

	assert.Equal(t, nethttp.StatusAccepted, rr.Code)
	assert.Contains(t, rr.Body.String(), "local-1")
}

func TestRouter_UnknownRoute(t *testing.T) {
	h := newTestRouter(t, nil)
	assert.Equal(t, nethttp.StatusNotFound, serve(h, nethttp.MethodGet, "/v1/nope", "", nil).Code)
}

func TestRouter_MetricsIsPublic(t *testing.T) {
	p, err := jwtinfra.NewProvider(&config.Config{APIJWTSecret: "s", APIJWTExpiry: time.Hour})
	require.NoError(t, err)
	h := newTestRouter(t, p)

	rr := serve(h, nethttp.MethodGet, "/metrics", "", nil)

	assert.Equal(t, nethttp.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
