package db

import (
	"os"
	"strconv"

	"github.com/go-faster/errors"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LoadPostgresConfig reads DB_* from the environment. Unset values fall back
// to a local development database.
func LoadPostgresConfig() (PostgresConfig, error) {
	cfg := PostgresConfig{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     5432,
		User:     envOr("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   envOr("DB_NAME", "offers"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return PostgresConfig{}, errors.Wrap(err, "DB_PORT")
		}
		cfg.Port = port
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
