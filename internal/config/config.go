package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the service settings read from the environment.
type Config struct {
	HTTPAddr        string
	LogLevel        slog.Level
	InclTax         bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTL        time.Duration
	BatchWorkers    int
	DefaultShipping decimal.Decimal
}

// Load reads the configuration from the environment, applying defaults for
// unset variables. A set but malformed variable is an error.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPAddr:        ":8080",
		LogLevel:        slog.LevelInfo,
		CacheTTL:        30 * time.Second,
		BatchWorkers:    4,
		DefaultShipping: decimal.Zero,
	}
	if v := getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return Config{}, errors.Wrap(err, "LOG_LEVEL")
		}
	}
	if v := getenv("OFFERS_INCL_TAX"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "OFFERS_INCL_TAX")
		}
		cfg.InclTax = b
	}
	cfg.RedisAddr = getenv("REDIS_ADDR")
	cfg.RedisPassword = getenv("REDIS_PASSWORD")
	if v := getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "REDIS_DB")
		}
		cfg.RedisDB = n
	}
	if v := getenv("OFFER_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "OFFER_CACHE_TTL")
		}
		cfg.CacheTTL = d
	}
	if v := getenv("BATCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, errors.Errorf("BATCH_WORKERS: want a positive integer, got %q", v)
		}
		cfg.BatchWorkers = n
	}
	if v := getenv("DEFAULT_SHIPPING_CHARGE"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "DEFAULT_SHIPPING_CHARGE")
		}
		if d.IsNegative() {
			return Config{}, errors.Errorf("DEFAULT_SHIPPING_CHARGE: negative charge %s", v)
		}
		cfg.DefaultShipping = d
	}
	return cfg, nil
}
