package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Ayash-Bera/carprice/backend/internal/models"
)

// Manager owns the optional Postgres and Redis connections. Either may be nil
// when the corresponding URL is not configured.
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

// Database configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewManager connects to whatever is configured. An empty config yields a
// manager with no connections.
func NewManager(config *Config, logger *logrus.Logger) (*Manager, error) {
	m := &Manager{logger: logger}

	if config.DatabaseURL != "" {
		db, err := openPostgres(config, logger)
		if err != nil {
			return nil, err
		}
		m.DB = db
	}

	if config.RedisURL != "" {
		client, err := openRedis(config.RedisURL)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.Redis = client
	}

	logger.WithFields(logrus.Fields{
		"postgres": m.DB != nil,
		"redis":    m.Redis != nil,
	}).Info("Storage connections established")

	return m, nil
}

func openPostgres(config *Config, log *logrus.Logger) (*gorm.DB, error) {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Silent)
	if config.LogLevel == "debug" {
		gormLogger = gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Info,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		})
	}

	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func openRedis(url string) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.PoolSize = 20
	redisOpts.MinIdleConns = 2
	redisOpts.MaxConnAge = time.Hour
	redisOpts.IdleTimeout = 30 * time.Minute

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Migrate creates the analytics tables.
func (m *Manager) Migrate() error {
	if m.DB == nil {
		return nil
	}
	m.logger.Info("Running database migrations...")

	return m.DB.AutoMigrate(
		&models.PredictionLog{},
		&models.SystemHealth{},
	)
}

// Close closes all database connections
func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

// Health check methods
func (m *Manager) PingDatabase(ctx context.Context) error {
	if m.DB == nil {
		return fmt.Errorf("database not configured")
	}
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *Manager) PingRedis(ctx context.Context) error {
	if m.Redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return m.Redis.Ping(ctx).Err()
}

// Cache stores estimates and health snapshots in Redis.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// ErrCacheDisabled is returned by callers that need Redis when none is configured.
var ErrCacheDisabled = errors.New("cache not configured")

// Cache key constants
const (
	EstimateKey     = "estimate:%s"
	SystemHealthKey = "system:health"
)

// CacheEstimate stores a prediction response under the fingerprint of its
// inputs.
func (c *Cache) CacheEstimate(ctx context.Context, fingerprint string, resp models.PredictResponse, expiration time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal estimate: %w", err)
	}

	return c.client.Set(ctx, fmt.Sprintf(EstimateKey, fingerprint), data, expiration).Err()
}

// GetCachedEstimate returns redis.Nil when nothing is cached.
func (c *Cache) GetCachedEstimate(ctx context.Context, fingerprint string) (*models.PredictResponse, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(EstimateKey, fingerprint)).Result()
	if err != nil {
		return nil, err
	}

	var resp models.PredictResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheSystemHealth caches system health status
func (c *Cache) CacheSystemHealth(ctx context.Context, health []models.SystemHealth, expiration time.Duration) error {
	data, err := json.Marshal(health)
	if err != nil {
		return fmt.Errorf("failed to marshal system health: %w", err)
	}

	return c.client.Set(ctx, SystemHealthKey, data, expiration).Err()
}

// GetCachedSystemHealth retrieves cached system health
func (c *Cache) GetCachedSystemHealth(ctx context.Context) ([]models.SystemHealth, error) {
	data, err := c.client.Get(ctx, SystemHealthKey).Result()
	if err != nil {
		return nil, err
	}

	var health []models.SystemHealth
	err = json.Unmarshal([]byte(data), &health)
	return health, err
}

// GetCacheStats reports a few counters from INFO stats.
func (c *Cache) GetCacheStats(ctx context.Context) (map[string]string, error) {
	info, err := c.client.Info(ctx, "stats").Result()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"keyspace_hits":   extractStat(info, "keyspace_hits"),
		"keyspace_misses": extractStat(info, "keyspace_misses"),
	}, nil
}

func extractStat(info, key string) string {
	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, key+":") {
			return strings.TrimPrefix(line, key+":")
		}
	}
	return "0"
}

// IsMiss reports whether err means the key was absent.
func IsMiss(err error) bool {
	return err == redis.Nil
}
