package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/carprice/backend/internal/api/handlers"
	"github.com/Ayash-Bera/carprice/backend/internal/metrics"
	"github.com/Ayash-Bera/carprice/backend/internal/middleware"
)

// RouterConfig holds what NewRouter wires together.
type RouterConfig struct {
	Handler      *handlers.PricingHandler
	Metrics      *metrics.Metrics
	RateLimiter  *middleware.RateLimiter
	AllowOrigins []string
	Logger       *logrus.Logger
}

// NewRouter mounts the pricing API under /api and metrics at /metrics.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logging(cfg.Logger),
		middleware.Recovery(cfg.Logger),
		middleware.CORS(cfg.AllowOrigins),
		middleware.SecurityHeaders(),
		cfg.Metrics.Middleware(),
	)

	router.GET("/metrics", cfg.Metrics.Handler())

	api := router.Group("/api")
	{
		api.GET("/options", cfg.Handler.HandleOptions)
		api.GET("/health", cfg.Handler.HandleHealth)
		api.GET("/health/detailed", cfg.Handler.HandleDetailedHealth)
		api.GET("/predictions/recent", cfg.Handler.HandleRecentPredictions)

		limited := api.Group("")
		if cfg.RateLimiter != nil {
			limited.Use(cfg.RateLimiter.RateLimit())
		}
		limited.POST("/predict", cfg.Handler.HandlePredict)
		limited.POST("/recommend", cfg.Handler.HandleRecommend)
	}

	return router
}
