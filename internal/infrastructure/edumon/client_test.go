package edumon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edumon-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api", time.Second)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("api/", time.Second)
	assert.Error(t, err)
}

func TestListNotifications_RequestShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/notificaciones", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "false", r.URL.Query().Get("leida"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"notificaciones":[
			{"_id":"B","usuarioId":"u","titulo":"T1","mensaje":"M1","tipo":"tarea","leido":false,"fecha":"2026-01-01T00:00:00Z","referenciaId":"r1"},
			{"_id":"C","usuarioId":"u","titulo":"T2","mensaje":"M2","tipo":"evento","leido":false,"fecha":"2026-01-01T00:00:00Z"}
		],"total":2,"pagina":1,"totalPaginas":1}`))
	})

	page, err := c.ListNotifications(context.Background(), "tok", 1, 50, true)

	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, "B", page.Notifications[0].NotificationID)
	assert.Equal(t, "tarea", page.Notifications[0].Kind)
	require.NotNil(t, page.Notifications[0].ReferenceID)
	assert.Equal(t, "r1", *page.Notifications[0].ReferenceID)
	assert.Nil(t, page.Notifications[1].ReferenceID)
	assert.Equal(t, 2, page.Total)
}

func TestListNotifications_AllOmitsReadFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["leida"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"notificaciones":[]}`))
	})

	page, err := c.ListNotifications(context.Background(), "tok", 2, 10, false)
	require.NoError(t, err)
	assert.Empty(t, page.Notifications)
}

func TestListNotifications_ErrorStatusMapsToSentinel(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrForbidden},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusConflict, domain.ErrConflict},
		{http.StatusUnprocessableEntity, domain.ErrBadRequest},
		{http.StatusBadGateway, domain.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})

			_, err := c.ListNotifications(context.Background(), "tok", 1, 50, true)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
			apiErr, ok := IsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestListNotifications_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"notificaciones":`))
	})

	_, err := c.ListNotifications(context.Background(), "tok", 1, 50, true)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestListNotifications_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c, err := NewClient(url, time.Second)
	require.NoError(t, err)

	_, err = c.ListNotifications(context.Background(), "tok", 1, 50, true)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestListNotifications_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListNotifications(ctx, "tok", 1, 50, true)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMarkRead(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/notificaciones/n-1/marcar-leida", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.MarkRead(context.Background(), "tok", "n-1"))
}

func TestDeleteNotification(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/notificaciones/n-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	assert.NoError(t, c.DeleteNotification(context.Background(), "tok", "n-1"))
}

func TestRegisterFCMToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/usuarios/me/fcm-token", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "fcm-1", body["fcmToken"])
	})
	assert.NoError(t, c.RegisterFCMToken(context.Background(), "tok", "fcm-1"))
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@edumon.ec", body["email"])
		assert.Equal(t, "secret", body["password"])
		_, _ = w.Write([]byte(`{"token":"jwt-1","usuario":{
			"_id":"u-1","padreId":"p-1","nombre":"Ana","apellido":"Quispe",
			"email":"ana@edumon.ec","telefono":"0991234567","rol":"estudiante",
			"cedula":"1712345678","estado":"activo","primerInicioSesion":true}}`))
	})

	res, err := c.Login(context.Background(), "ana@edumon.ec", "secret")

	require.NoError(t, err)
	assert.Equal(t, "jwt-1", res.Token)
	assert.True(t, res.FirstLogin)
	assert.Equal(t, "u-1", res.User.ID)
	assert.Equal(t, "p-1", res.User.ParentID)
	assert.Equal(t, "Quispe", res.User.LastName)
	require.NotNil(t, res.User.Cedula)
	assert.Equal(t, "1712345678", *res.User.Cedula)
	assert.Nil(t, res.User.Photo)
}

func TestLogin_BadCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"mensaje":"Credenciales inválidas"}`))
	})

	_, err := c.Login(context.Background(), "a@b.ec", "x")

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "Credenciales inválidas")
}

func TestLogin_MissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"usuario":{}}`))
	})

	_, err := c.Login(context.Background(), "a@b.ec", "x")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}
