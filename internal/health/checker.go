package health

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/carprice/backend/internal/database"
	"github.com/Ayash-Bera/carprice/backend/internal/models"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Pinger is anything with a cheap liveness probe, such as the model server
// client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// snapshotCache is the slice of *database.Cache the checker relies on.
type snapshotCache interface {
	CacheSystemHealth(ctx context.Context, health []models.SystemHealth, expiration time.Duration) error
	GetCachedSystemHealth(ctx context.Context) ([]models.SystemHealth, error)
	GetCacheStats(ctx context.Context) (map[string]string, error)
}

// HealthChecker probes whichever backing services are configured.
type HealthChecker struct {
	dbManager   *database.Manager
	cache       snapshotCache
	modelServer Pinger
	healthRepo  models.SystemHealthRepository
	logger      *logrus.Logger
	startedAt   time.Time
}

// NewHealthChecker accepts nil for any dependency that is not configured.
func NewHealthChecker(dbManager *database.Manager, modelServer Pinger, healthRepo models.SystemHealthRepository, logger *logrus.Logger) *HealthChecker {
	h := &HealthChecker{
		dbManager:   dbManager,
		modelServer: modelServer,
		healthRepo:  healthRepo,
		logger:      logger,
		startedAt:   time.Now(),
	}
	if dbManager != nil && dbManager.Redis != nil {
		h.cache = database.NewCache(dbManager.Redis, logger)
	}
	return h
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
	Cached   bool            `json:"cached,omitempty"`
}

func (h *HealthChecker) probe(ctx context.Context, name string, ping func(context.Context) error) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	if err != nil {
		status = StatusUnhealthy
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Error("Health check failed")
	}

	if h.healthRepo != nil {
		if err := h.healthRepo.UpdateServiceHealth(name, status, responseTime, errorMsg); err != nil {
			h.logger.WithError(err).WithField("service", name).Warn("Failed to record health check")
		}
	}

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckAll performs health checks on all configured services. With nothing
// configured the result is healthy with an empty service list.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := []ServiceHealth{}

	if h.dbManager != nil && h.dbManager.DB != nil {
		services = append(services, h.probe(ctx, "postgresql", h.dbManager.PingDatabase))
	}
	if h.dbManager != nil && h.dbManager.Redis != nil {
		services = append(services, h.probe(ctx, "redis", h.dbManager.PingRedis))
	}
	if h.modelServer != nil {
		services = append(services, h.probe(ctx, "model_server", h.modelServer.Ping))
	}

	return OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   h.Uptime(),
	}
}

// CheckCached returns the last snapshot stored by PeriodicHealthCheck.
func (h *HealthChecker) CheckCached(ctx context.Context) (*OverallHealth, error) {
	if h.cache == nil {
		return nil, database.ErrCacheDisabled
	}
	cachedHealth, err := h.cache.GetCachedSystemHealth(ctx)
	if err != nil {
		return nil, err
	}

	services := make([]ServiceHealth, len(cachedHealth))
	for i, health := range cachedHealth {
		services[i] = ServiceHealth{
			Name:         health.ServiceName,
			Status:       health.Status,
			ResponseTime: health.ResponseTimeMs,
			Error:        health.ErrorMessage,
			LastChecked:  health.CheckedAt.Format(time.RFC3339),
		}
	}

	return &OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   h.Uptime(),
		Cached:   true,
	}, nil
}

// Snapshot serves the cached snapshot when one exists and probes live
// otherwise.
func (h *HealthChecker) Snapshot(ctx context.Context) OverallHealth {
	cached, err := h.CheckCached(ctx)
	if err == nil {
		return *cached
	}
	if !errors.Is(err, database.ErrCacheDisabled) && !database.IsMiss(err) {
		h.logger.WithError(err).Warn("Failed to read cached health, probing live")
	}
	return h.CheckAll(ctx)
}

// CacheStats reports Redis keyspace hits and misses.
func (h *HealthChecker) CacheStats(ctx context.Context) (map[string]string, error) {
	if h.cache == nil {
		return nil, database.ErrCacheDisabled
	}
	return h.cache.GetCacheStats(ctx)
}

func overallStatus(services []ServiceHealth) string {
	status := StatusHealthy
	for _, service := range services {
		if service.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if service.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}

func (h *HealthChecker) Uptime() string {
	return time.Since(h.startedAt).Round(time.Second).String()
}

// PeriodicHealthCheck runs health checks periodically until ctx is done.
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)

			if h.cache != nil {
				h.cacheSnapshot(health, 2*interval)
			}

			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}

func (h *HealthChecker) cacheSnapshot(health OverallHealth, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	healthModels := make([]models.SystemHealth, len(health.Services))
	for i, service := range health.Services {
		checkedAt, _ := time.Parse(time.RFC3339, service.LastChecked)
		healthModels[i] = models.SystemHealth{
			ServiceName:    service.Name,
			Status:         service.Status,
			ResponseTimeMs: service.ResponseTime,
			ErrorMessage:   service.Error,
			CheckedAt:      checkedAt,
		}
	}

	if err := h.cache.CacheSystemHealth(ctx, healthModels, ttl); err != nil {
		h.logger.WithError(err).Error("Failed to cache health status")
	}
}
