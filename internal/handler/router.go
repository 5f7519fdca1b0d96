package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/openclaw/wa-gateway-go/internal/config"
	"github.com/openclaw/wa-gateway-go/internal/middleware"
)

// RouterDeps collects what the HTTP surface is assembled from.
type RouterDeps struct {
	Health    *HealthHandler
	Session   *SessionHandler
	Messaging *MessagingHandler
	Events    *EventsHandler

	Auth            *middleware.AuthMiddleware
	RateLimit       *middleware.RateLimitMiddleware
	BodyLimit       *middleware.BodyLimitMiddleware
	SecurityHeaders *middleware.SecurityHeadersMiddleware
	AllowedOrigins  []string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.Use(d.SecurityHeaders.Handler)
	r.Use(d.BodyLimit.Handler)

	r.Method(http.MethodGet, "/health", d.Health)

	r.Route("/api", func(r chi.Router) {
		// Streams stay open past the request timeout.
		r.With(d.Auth.StreamHandler, d.RateLimit.Handler).
			Method(http.MethodGet, "/events", d.Events)

		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Handler)
			r.Use(d.RateLimit.Handler)
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

			r.Get("/status", d.Session.GetStatus)
			r.Get("/qrcode", d.Session.GetQRCode)
			r.Post("/logout", d.Session.Logout)

			r.Post("/send", d.Messaging.Send)
			r.Get("/contacts", d.Messaging.ListContacts)
			r.Get("/groups", d.Messaging.ListGroups)
			r.Get("/groups/{groupId}/members", d.Messaging.ListGroupMembers)
		})
	})

	return r
}
