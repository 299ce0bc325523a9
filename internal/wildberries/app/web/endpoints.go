package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"gomarket_feedbacks/config"
	"gomarket_feedbacks/internal/wildberries/app/web/handlers"
	"gomarket_feedbacks/metrics"
	"gomarket_feedbacks/pkg/logger"
	"gomarket_feedbacks/pkg/middleware"
)

type Handlers struct {
	Monitor   *handlers.MonitorHandler
	Feedbacks *handlers.FeedbacksHandler
	Health    *handlers.HealthHandler
}

func SetupRoutes(cfg config.ServerConfig, log logger.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.PrometheusMiddleware)

	r.Get("/health", h.Health.GetHealthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.MetricsHandler())
	r.Get("/feedbacks/{sku}", h.Feedbacks.GetFeedbacksHandler)

	r.Group(func(r chi.Router) {
		if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}
		r.Post("/monitor", h.Monitor.PostMonitorHandler)
	})

	log.Log("Routes: POST /monitor, GET /feedbacks/{sku}, GET /health, GET /metrics")
	return r
}
