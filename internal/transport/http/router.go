package http

import (
	"context"
	"net/http"

	"github.com/edumon-sync/internal/application/auth"
	"github.com/edumon-sync/internal/application/device"
	"github.com/edumon-sync/internal/application/notification"
	"github.com/edumon-sync/internal/application/profile"
	"github.com/edumon-sync/internal/config"
	"github.com/edumon-sync/internal/domain"
	jwtinfra "github.com/edumon-sync/internal/infrastructure/jwt"
	"github.com/edumon-sync/internal/transport/http/handler"
	appmiddleware "github.com/edumon-sync/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Engine is what the router needs from the notification sync engine.
type Engine interface {
	HandlePush(ctx context.Context, msg domain.PushMessage) (domain.LocalNotification, bool)
	State() notification.State
}

// SettingsStore is what the router needs to toggle notification display.
type SettingsStore interface {
	SetNotificationsEnabled(ctx context.Context, enabled bool) error
}

// Deps holds the application services the router exposes.
type Deps struct {
	Auth          auth.Service
	Device        device.Service
	Profile       profile.Service
	Notifications notification.Service
	Engine        Engine
	Events        *notification.Events
	Settings      SettingsStore
	JWTProvider   *jwtinfra.Provider // nil leaves the API open
}

// NewRouter builds and returns the application router. The returned stop
// function releases the rate limiter.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, func()) {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 per client on push and login endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler(func() string { return string(deps.Engine.State()) })
	pushH := handler.NewPushHandler(deps.Engine, deps.Device)
	sessionH := handler.NewSessionHandler(deps.Auth)
	profileH := handler.NewProfileHandler(deps.Profile)
	settingsH := handler.NewSettingsHandler(deps.Settings)
	notifH := handler.NewNotificationHandler(deps.Notifications)
	eventsH := handler.NewEventsHandler(deps.Events)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Group(func(r chi.Router) {
				r.Use(sensitiveRL.Limit)
				r.Post("/push/messages", pushH.Message)
				r.Post("/push/token", pushH.Token)
				r.Post("/sessions/login", sessionH.Login)
			})

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Put("/users/me", profileH.Update)
			r.Post("/users/me/photo", profileH.UploadPhoto)

			r.Put("/settings/notifications", settingsH.Notifications)

			r.Get("/notifications", notifH.List)
			r.Put("/notifications/{id}/read", notifH.MarkRead)
			r.Delete("/notifications/{id}", notifH.Delete)

			r.Get("/events", eventsH.Stream)
		})
	})

	return r, sensitiveRL.Stop
}
