package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/carprice/backend/internal/api"
	"github.com/Ayash-Bera/carprice/backend/internal/api/handlers"
	"github.com/Ayash-Bera/carprice/backend/internal/artifacts"
	"github.com/Ayash-Bera/carprice/backend/internal/config"
	"github.com/Ayash-Bera/carprice/backend/internal/database"
	"github.com/Ayash-Bera/carprice/backend/internal/health"
	"github.com/Ayash-Bera/carprice/backend/internal/metrics"
	"github.com/Ayash-Bera/carprice/backend/internal/middleware"
	"github.com/Ayash-Bera/carprice/backend/internal/migration"
	"github.com/Ayash-Bera/carprice/backend/internal/models"
	"github.com/Ayash-Bera/carprice/backend/internal/modelserver"
	"github.com/Ayash-Bera/carprice/backend/internal/pricing"
	"github.com/Ayash-Bera/carprice/backend/internal/recommend"
	"github.com/Ayash-Bera/carprice/backend/internal/repository"
	"github.com/Ayash-Bera/carprice/backend/internal/services"
	"github.com/Ayash-Bera/carprice/backend/pkg/utils"
)

const healthCheckInterval = time.Minute

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found")
	}

	logger := utils.InitLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Remote model server replaces model.json when configured
	var (
		remote      pricing.Regressor
		modelServer health.Pinger
	)
	if cfg.Model.ServerURL != "" {
		client := modelserver.NewClient(cfg.Model.ServerURL, cfg.Model.APIKey, cfg.Model.Timeout, logger)
		remote, modelServer = client, client
	}

	loaded, loadErr := artifacts.LoadOrFallback(cfg.Model.Dir, remote, logger)

	predictor := pricing.NewPredictor(pricing.Config{
		Schema:        loaded.Schema,
		Model:         loaded.Model,
		ReferenceYear: cfg.Pricing.ReferenceYear,
	}, logger)

	// Postgres and Redis are both optional
	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    cfg.Database.LogLevel,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	defer dbManager.Close()

	if dbManager.DB != nil {
		runner := migration.NewRunner(dbManager.DB, dbManager.Migrate, logger)
		if err := runner.RunMigrations(cfg.Database.MigrationsDir); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	opts := services.Options{
		CacheTTL: cfg.Cache.TTL,
		Sources:  recommend.FixedSeed(cfg.Recommend.Seed),
	}
	if cfg.Recommend.Randomize {
		opts.Sources = recommend.TimeSeeded()
	}
	if dbManager.Redis != nil {
		opts.Cache = database.NewCache(dbManager.Redis, logger)
	}

	var healthRepo models.SystemHealthRepository
	if dbManager.DB != nil {
		repos := repository.NewRepositoryManager(dbManager.DB)
		opts.Logs = repos.PredictionLog
		healthRepo = repos.SystemHealth
	}

	m := metrics.New()
	estimateService := services.NewEstimateService(predictor, recommend.NewGenerator(), m, opts, logger)
	checker := health.NewHealthChecker(dbManager, modelServer, healthRepo, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute)
	defer rateLimiter.Stop()

	handler := handlers.NewPricingHandler(estimateService, checker, loaded.Summary(loadErr), cfg.Server.RequestTimeout, logger)
	router := api.NewRouter(api.RouterConfig{
		Handler:      handler,
		Metrics:      m,
		RateLimiter:  rateLimiter,
		AllowOrigins: cfg.CORS.AllowOrigins,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go checker.PeriodicHealthCheck(ctx, healthCheckInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":     cfg.Server.Port,
			"strategy": predictor.Strategy(),
		}).Info("Starting car price API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	logger.Info("Server stopped")
}
