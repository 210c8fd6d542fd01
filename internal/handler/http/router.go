package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ihaney/Alpha.A1/internal/service"
	"github.com/ihaney/Alpha.A1/pkg/health"
	"github.com/ihaney/Alpha.A1/pkg/middleware"
	"github.com/ihaney/Alpha.A1/pkg/ratelimit"
)

// RouterConfig carries the cross-cutting pieces the router wires in.
type RouterConfig struct {
	CORSOrigin    string
	Limiter       *ratelimit.Limiter
	ValidateToken middleware.TokenValidator
}

// NewRouter creates a chi router with all webhook routes registered. Health
// and metrics endpoints stay outside the auth and rate-limit chain.
func NewRouter(
	syncService *service.SyncService,
	embeddingService *service.EmbeddingService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigin)))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("sync"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	syncHandler := NewSyncHandler(syncService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.Limiter, logger))
		r.Use(middleware.BearerAuth(cfg.ValidateToken))

		r.Post("/sync", syncHandler.HandleChange)

		if embeddingService != nil {
			embeddingHandler := NewEmbeddingHandler(embeddingService, logger)
			r.Post("/embed", embeddingHandler.HandleEmbed)
		}
	})

	return r
}
