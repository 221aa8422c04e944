package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clubvoice/clubvoice/internal/bookings"
	"github.com/clubvoice/clubvoice/internal/clubs"
	"github.com/clubvoice/clubvoice/internal/conversations"
	"github.com/clubvoice/clubvoice/internal/customers"
	"github.com/clubvoice/clubvoice/internal/dashboard"
	"github.com/clubvoice/clubvoice/internal/http/handlers"
	httpmiddleware "github.com/clubvoice/clubvoice/internal/http/middleware"
	"github.com/clubvoice/clubvoice/internal/live"
	"github.com/clubvoice/clubvoice/internal/notifications"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger        *logging.Logger
	Health        *handlers.HealthHandler
	VoiceWebhooks *handlers.VoiceWebhookHandler

	// Staff API handlers (optional; absent handlers leave their routes
	// unregistered).
	ClubsHandler         *clubs.Handler
	CustomersHandler     *customers.Handler
	BookingsHandler      *bookings.Handler
	ConversationsHandler *conversations.Handler
	NotificationsHandler *notifications.Handler
	DashboardHandler     *dashboard.Handler
	LiveHub              *live.Hub

	MetricsHandler http.Handler

	// StaffAuthSecret guards the staff API; empty disables the whole
	// staff group.
	StaffAuthSecret string

	CORSAllowedOrigins []string

	// WebhookRate/WebhookBurst rate-limit the public group per client
	// ip. Zero rate disables limiting.
	WebhookRate  float64
	WebhookBurst int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	// Public endpoints (voice platform webhooks, health, metrics)
	r.Group(func(public chi.Router) {
		if cfg.WebhookRate > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.WebhookRate, cfg.WebhookBurst))
		}
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.Handle)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.VoiceWebhooks != nil {
			public.Post("/api/v1/voice/webhook", cfg.VoiceWebhooks.HandleWebhook)
			public.Get("/api/v1/voice/tools", cfg.VoiceWebhooks.HandleTools)
		}
	})

	// Staff API (JWT-protected, club scope comes from the token or the
	// X-Club-Id header for super admins)
	if cfg.StaffAuthSecret != "" {
		r.Route("/api/v1", func(staff chi.Router) {
			staff.Use(httpmiddleware.StaffJWT(cfg.StaffAuthSecret))
			staff.Use(clubScopeHeader)

			if cfg.ClubsHandler != nil {
				staff.With(httpmiddleware.RequireRole(httpmiddleware.RoleClubAdmin)).
					Mount("/clubs", cfg.ClubsHandler.Routes())
			}
			if cfg.CustomersHandler != nil {
				staff.Mount("/customers", cfg.CustomersHandler.Routes())
			}
			if cfg.BookingsHandler != nil {
				staff.Mount("/bookings", cfg.BookingsHandler.Routes())
			}
			if cfg.ConversationsHandler != nil {
				staff.Mount("/conversations", cfg.ConversationsHandler.Routes())
			}
			if cfg.NotificationsHandler != nil {
				staff.Mount("/notifications", cfg.NotificationsHandler.Routes())
			}
			if cfg.DashboardHandler != nil {
				staff.Get("/dashboard/stats", cfg.DashboardHandler.GetStats)
			}
			if cfg.LiveHub != nil {
				staff.Get("/dashboard/live", cfg.LiveHub.HandleLive)
			}
		})
	}

	return r
}
