package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jlymoure25/regaltyecommerce/internal/service"
	"github.com/Jlymoure25/regaltyecommerce/pkg/health"
	"github.com/Jlymoure25/regaltyecommerce/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig holds the HTTP-layer settings that come from configuration.
type RouterConfig struct {
	CORS middleware.CORSConfig

	// PprofCIDRs may reach /debug/pprof. Empty disables the endpoints.
	PprofCIDRs []string

	// CatalogMaxAge is the Cache-Control max-age for catalog reads, in seconds.
	CatalogMaxAge int

	// RateLimiter throttles /api/v1. Nil disables rate limiting.
	RateLimiter *middleware.RateLimiter

	// RequestTimeout bounds each request. Defaults to 30s.
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svc *service.StorefrontService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	productHandler := NewProductHandler(svc, logger)
	cartHandler := NewCartHandler(svc, logger)
	wishlistHandler := NewWishlistHandler(svc, logger)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}
		r.Use(ContentTypeJSON)

		// Catalog reads are the same for every visitor.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CatalogMaxAge))

			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/slug/{slug}", productHandler.GetProductBySlug)
			r.Get("/products/{productId}", productHandler.GetProduct)
			r.Get("/products/{productId}/preview", productHandler.PreviewProduct)
			r.Get("/categories", productHandler.ListCategories)
		})

		// Cart and wishlist state must never be served from a cache.
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/cart", cartHandler.GetCart)
			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)
			r.Post("/checkout", cartHandler.Checkout)

			r.Get("/wishlist", wishlistHandler.GetWishlist)
			r.Delete("/wishlist", wishlistHandler.ClearWishlist)
			r.Get("/wishlist/{productId}", wishlistHandler.Contains)
			r.Post("/wishlist/{productId}", wishlistHandler.AddItem)
			r.Delete("/wishlist/{productId}", wishlistHandler.RemoveItem)
		})
	})

	return r
}
