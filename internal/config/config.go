package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port            string
		Env             string
		ShutdownTimeout time.Duration
		RequestTimeout  time.Duration
	}
	CORS struct {
		AllowOrigins []string
	}
	Database struct {
		URL           string
		LogLevel      string
		MigrationsDir string
	}
	Redis struct {
		URL string
	}
	Cache struct {
		TTL time.Duration
	}
	Model struct {
		Dir       string
		ServerURL string
		APIKey    string
		Timeout   time.Duration
	}
	Pricing struct {
		ReferenceYear int
	}
	Recommend struct {
		Seed      uint64
		Randomize bool
	}
	RateLimit struct {
		PerMinute int
	}
}

// Load reads config.yaml (optional) and environment overrides such as
// SERVER_PORT or MODEL_DIR.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.shutdowntimeout", "10s")
	v.SetDefault("server.requesttimeout", "10s")
	v.SetDefault("cors.alloworigins", "*")
	v.SetDefault("database.url", "")
	v.SetDefault("database.loglevel", "")
	v.SetDefault("database.migrationsdir", "./migrations")
	v.SetDefault("redis.url", "")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("model.dir", "./artifacts")
	v.SetDefault("model.serverurl", "")
	v.SetDefault("model.apikey", "")
	v.SetDefault("model.timeout", "5s")
	v.SetDefault("pricing.referenceyear", 2024)
	v.SetDefault("recommend.seed", 42)
	v.SetDefault("recommend.randomize", false)
	v.SetDefault("ratelimit.perminute", 120)

	// Flat names used by existing deployments.
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("redis.url", "REDIS_URL")
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")
	_ = v.BindEnv("model.serverurl", "MODEL_SERVER_URL")
	_ = v.BindEnv("model.apikey", "MODEL_SERVER_API_KEY")
	_ = v.BindEnv("database.loglevel", "LOG_LEVEL")
	_ = v.BindEnv("cors.alloworigins", "CORS_ALLOW_ORIGINS")
	_ = v.BindEnv("pricing.referenceyear", "PRICING_REFERENCE_YEAR")
	_ = v.BindEnv("ratelimit.perminute", "RATE_LIMIT_PER_MINUTE")
	_ = v.BindEnv("server.shutdowntimeout", "SERVER_SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("database.migrationsdir", "MIGRATIONS_DIR")
}

func fromViper(v *viper.Viper) (*Config, error) {
	var config Config

	config.Server.Port = v.GetString("server.port")
	config.Server.Env = v.GetString("server.env")
	config.Server.ShutdownTimeout = v.GetDuration("server.shutdowntimeout")
	config.Server.RequestTimeout = v.GetDuration("server.requesttimeout")
	config.CORS.AllowOrigins = splitAndTrim(v.GetString("cors.alloworigins"))
	config.Database.URL = v.GetString("database.url")
	config.Database.LogLevel = v.GetString("database.loglevel")
	config.Database.MigrationsDir = v.GetString("database.migrationsdir")
	config.Redis.URL = v.GetString("redis.url")
	config.Cache.TTL = v.GetDuration("cache.ttl")
	config.Model.Dir = v.GetString("model.dir")
	config.Model.ServerURL = v.GetString("model.serverurl")
	config.Model.APIKey = v.GetString("model.apikey")
	config.Model.Timeout = v.GetDuration("model.timeout")
	config.Pricing.ReferenceYear = v.GetInt("pricing.referenceyear")
	config.Recommend.Seed = v.GetUint64("recommend.seed")
	config.Recommend.Randomize = v.GetBool("recommend.randomize")
	config.RateLimit.PerMinute = v.GetInt("ratelimit.perminute")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Pricing.ReferenceYear < 1900 {
		return fmt.Errorf("pricing reference year %d is not plausible", c.Pricing.ReferenceYear)
	}
	if c.RateLimit.PerMinute < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	return nil
}

// DatabaseEnabled reports whether prediction logs are persisted.
func (c *Config) DatabaseEnabled() bool { return c.Database.URL != "" }

// CacheEnabled reports whether estimates are cached in Redis.
func (c *Config) CacheEnabled() bool { return c.Redis.URL != "" }

func splitAndTrim(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
