package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(env(nil))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.InclTax)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 4, cfg.BatchWorkers)
	assert.True(t, cfg.DefaultShipping.IsZero())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"HTTP_ADDR":               ":9090",
		"LOG_LEVEL":               "debug",
		"OFFERS_INCL_TAX":         "true",
		"REDIS_ADDR":              "localhost:6379",
		"REDIS_DB":                "2",
		"OFFER_CACHE_TTL":         "1m",
		"BATCH_WORKERS":           "8",
		"DEFAULT_SHIPPING_CHARGE": "4.99",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.InclTax)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.BatchWorkers)
	assert.Equal(t, "4.99", cfg.DefaultShipping.StringFixed(2))
}

func TestLoadRejectsMalformed(t *testing.T) {
	for k, v := range map[string]string{
		"LOG_LEVEL":               "loud",
		"OFFERS_INCL_TAX":         "maybe",
		"REDIS_DB":                "one",
		"OFFER_CACHE_TTL":         "soon",
		"BATCH_WORKERS":           "0",
		"DEFAULT_SHIPPING_CHARGE": "-1",
	} {
		t.Run(k, func(t *testing.T) {
			_, err := load(env(map[string]string{k: v}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), k)
		})
	}
}
