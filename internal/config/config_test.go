package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, "./artifacts", cfg.Model.Dir)
	assert.Equal(t, 5*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 2024, cfg.Pricing.ReferenceYear)
	assert.Equal(t, uint64(42), cfg.Recommend.Seed)
	assert.False(t, cfg.Recommend.Randomize)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.DatabaseEnabled())
	assert.False(t, cfg.CacheEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/cars")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("MODEL_DIR", "/srv/model")
	t.Setenv("MODEL_SERVER_URL", "http://model:8000")
	t.Setenv("PRICING_REFERENCE_YEAR", "2026")
	t.Setenv("RECOMMEND_RANDOMIZE", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:3000, https://cars.example.com")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.DatabaseEnabled())
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, "/srv/model", cfg.Model.Dir)
	assert.Equal(t, "http://model:8000", cfg.Model.ServerURL)
	assert.Equal(t, 2026, cfg.Pricing.ReferenceYear)
	assert.True(t, cfg.Recommend.Randomize)
	assert.Equal(t, []string{"http://localhost:3000", "https://cars.example.com"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestLoad_RejectsImplausibleReferenceYear(t *testing.T) {
	t.Setenv("PRICING_REFERENCE_YEAR", "24")

	_, err := Load()
	assert.Error(t, err)
}
