package app

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/triangulator-go/internal/logger"
	"github.com/garyellow/triangulator-go/internal/metrics"
)

// RouterConfig configures the HTTP router around a Handler.
type RouterConfig struct {
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	MetricsUsername string
	MetricsPassword string

	// GlobalLimiter and ClientLimiter throttle the API routes. Nil disables each.
	GlobalLimiter Allower
	ClientLimiter KeyedAllower

	// Sentry attaches the sentry-go gin middleware.
	Sentry bool
}

// NewRouter builds the gin engine serving h.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Sentry {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestContextMiddleware())
	if cfg.Logger != nil {
		router.Use(loggingMiddleware(cfg.Logger))
	}

	router.GET("/livez", h.Livez)
	router.HEAD("/livez", h.Livez)
	router.GET("/readyz", h.Readyz)
	router.HEAD("/readyz", h.Readyz)

	if cfg.Registry != nil {
		router.GET("/metrics",
			metricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword),
			gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1", rateLimitMiddleware(cfg.GlobalLimiter, cfg.ClientLimiter, cfg.Metrics))
	api.POST("/lookup", h.Lookup)
	api.POST("/lookup/batch", h.LookupBatch)
	api.POST("/tcg/parse", h.ParsePage)

	return router
}
