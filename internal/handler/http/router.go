package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	h *StorefrontHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cors middleware.CORSConfig,
	rateLimit middleware.RateLimitConfig,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cors))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(rateLimit, logger))
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(middleware.CatalogMaxAge))
			r.Get("/products", h.ListProducts)
			r.Get("/products/{productId}", h.GetProduct)
			r.Get("/banners", h.ListBanners)
		})

		r.Post("/sessions", h.CreateSession)
		r.Delete("/sessions/{sessionId}", h.DeleteSession)

		r.Route("/cart", func(r chi.Router) {
			r.Use(SessionFromHeader)
			r.Use(middleware.CacheControl(0))

			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Post("/items/{productId}/increase", h.IncreaseItem)
			r.Post("/items/{productId}/decrease", h.DecreaseItem)
			r.Post("/pay", h.Pay)
		})
	})

	return r
}
