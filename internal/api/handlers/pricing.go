package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/carprice/backend/internal/database"
	"github.com/Ayash-Bera/carprice/backend/internal/health"
	"github.com/Ayash-Bera/carprice/backend/internal/middleware"
	"github.com/Ayash-Bera/carprice/backend/internal/models"
	"github.com/Ayash-Bera/carprice/backend/internal/pricing"
	"github.com/Ayash-Bera/carprice/backend/internal/services"
	"github.com/Ayash-Bera/carprice/backend/pkg/utils"
)

const healthyMessage = "Car price prediction API is running"

type PricingHandler struct {
	service        *services.EstimateService
	checker        *health.HealthChecker
	artifacts      models.ArtifactSummary
	requestTimeout time.Duration
	logger         *logrus.Logger
}

func NewPricingHandler(
	service *services.EstimateService,
	checker *health.HealthChecker,
	artifacts models.ArtifactSummary,
	requestTimeout time.Duration,
	logger *logrus.Logger,
) *PricingHandler {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &PricingHandler{
		service:        service,
		checker:        checker,
		artifacts:      artifacts,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// HandleOptions lists the categorical values the encoder recognizes.
func (h *PricingHandler) HandleOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Options())
}

// HandlePredict estimates a price for a partial attribute record.
func (h *PricingHandler) HandlePredict(c *gin.Context) {
	raw, err := decodeBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	resp, err := h.service.Predict(ctx, raw, h.requestMeta(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleRecommend returns similar listings around a target price.
func (h *PricingHandler) HandleRecommend(c *gin.Context) {
	raw, err := decodeBody(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	resp, err := h.service.Recommend(ctx, raw, h.requestMeta(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PricingHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:   health.StatusHealthy,
		Message:  healthyMessage,
		Strategy: string(h.service.Strategy()),
	})
}

// HandleDetailedHealth probes configured dependencies and reports what was
// loaded at startup. It answers 503 when a dependency is unhealthy. With
// ?cached=true the last periodic snapshot is served when present.
func (h *PricingHandler) HandleDetailedHealth(c *gin.Context) {
	useCache, err := strconv.ParseBool(c.DefaultQuery("cached", "false"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidRequest, "cached must be a boolean")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	var overall health.OverallHealth
	if useCache {
		overall = h.checker.Snapshot(ctx)
	} else {
		overall = h.checker.CheckAll(ctx)
	}

	resp := models.DetailedHealthResponse{
		Status:    overall.Status,
		Strategy:  string(h.service.Strategy()),
		Services:  overall.Services,
		Artifacts: h.artifacts,
		Uptime:    overall.Uptime,
		Cached:    overall.Cached,
	}
	if stats, err := h.checker.CacheStats(ctx); err == nil {
		resp.Cache = stats
	} else if !errors.Is(err, database.ErrCacheDisabled) {
		h.logger.WithError(err).Warn("Failed to read cache stats")
	}
	if counts, err := h.service.PredictionCounts(time.Now().Add(-24 * time.Hour)); err == nil {
		resp.Predictions24h = counts
	} else if !errors.Is(err, services.ErrAnalyticsDisabled) {
		h.logger.WithError(err).Warn("Failed to count recent predictions")
	}

	status := http.StatusOK
	if overall.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// HandleRecentPredictions lists logged predictions, newest first.
func (h *PricingHandler) HandleRecentPredictions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultRecentLimit)))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidRequest, "limit must be an integer")
		return
	}

	logs, err := h.service.RecentPredictions(limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       len(logs),
		"predictions": logs,
	})
}

// writeError maps service errors onto status codes and envelope codes.
func (h *PricingHandler) writeError(c *gin.Context, err error) {
	var (
		convErr  *models.ConversionError
		modelErr *pricing.ModelError
	)

	switch {
	case errors.As(err, &convErr):
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeConversionError, err.Error())
	case errors.Is(err, models.ErrInvalidBody):
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeInvalidRequest, err.Error())
	case errors.As(err, &modelErr):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, utils.CodeModelError, err.Error())
	case errors.Is(err, services.ErrAnalyticsDisabled):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, utils.CodeUnavailable, err.Error())
	default:
		h.logger.WithError(err).WithField("request_id", middleware.RequestIDFromContext(c)).Error("Unhandled request error")
		utils.ErrorResponse(c, http.StatusInternalServerError, utils.CodeInternal, "internal server error")
	}
}

func (h *PricingHandler) requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		RequestID: middleware.RequestIDFromContext(c),
		Session:   getUserSession(c),
	}
}

func getUserSession(c *gin.Context) string {
	if session := c.GetHeader("X-Session-ID"); utils.ValidateSessionID(session) {
		return session
	}
	return utils.GenerateSessionID(c.ClientIP() + "|" + c.GetHeader("User-Agent"))
}

// decodeBody reads a JSON object. An empty body means "all defaults".
func decodeBody(c *gin.Context) (map[string]interface{}, error) {
	data, err := c.GetRawData()
	if err != nil {
		return nil, models.ErrInvalidBody
	}
	raw := map[string]interface{}{}
	if strings.TrimSpace(string(data)) == "" {
		return raw, nil
	}
	if err := binding.JSON.BindBody(data, &raw); err != nil {
		return nil, models.ErrInvalidBody
	}
	if raw == nil {
		// "null"
		return map[string]interface{}{}, nil
	}
	return raw, nil
}
