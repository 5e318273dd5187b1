package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/decsa/utility-chat-platform/internal/http/handlers"
	httpmiddleware "github.com/decsa/utility-chat-platform/internal/http/middleware"
	"github.com/decsa/utility-chat-platform/internal/webchat"
	"github.com/decsa/utility-chat-platform/pkg/logging"
)

// Config holds router configuration. Handlers left nil simply do not get
// routes, so the API degrades with the runtime's available dependencies.
type Config struct {
	Logger             *logging.Logger
	Health             *handlers.HealthHandler
	ChatWebhook        *handlers.ChatWebhookHandler
	Customers          *handlers.CustomersHandler
	Complaints         *handlers.ComplaintsHandler
	Invoices           *handlers.InvoicesHandler
	Webchat            *webchat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: probes, metrics, channel webhooks.
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.Live)
			public.Get("/health/ready", cfg.Health.Ready)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.ChatWebhook != nil {
			// The gateway retries aggressively on slow turns; cap it per IP.
			public.With(httpmiddleware.RateLimit(10, 20)).
				Post("/webhook/chattigo", cfg.ChatWebhook.Handle)
		}
		if cfg.Webchat != nil {
			public.Mount("/webchat", cfg.Webchat.Routes())
		}
	})

	// Back-office API used by the DECSA operations dashboard.
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.Customers != nil {
			api.Route("/customers/{dni}", func(c chi.Router) {
				c.Get("/", cfg.Customers.Get)
				c.Put("/", cfg.Customers.Update)
			})
		}
		if cfg.Complaints != nil {
			api.Route("/complaints", func(c chi.Router) {
				c.Get("/", cfg.Complaints.List)
				c.Route("/customer/{dni}", func(byDNI chi.Router) {
					byDNI.Get("/", cfg.Complaints.ListByCustomer)
					byDNI.Post("/", cfg.Complaints.Register)
				})
				c.Route("/{complaintID}", func(byID chi.Router) {
					byID.Get("/", cfg.Complaints.Get)
					byID.Put("/", cfg.Complaints.UpdateStatus)
					byID.Delete("/", cfg.Complaints.Cancel)
				})
			})
		}
		if cfg.Invoices != nil {
			api.Get("/invoices/{dni}", cfg.Invoices.Latest)
		}
	})

	return r
}
