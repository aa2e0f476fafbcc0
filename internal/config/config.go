// Package config loads application configuration from .env files and
// environment variables, with sane defaults for local development.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server and ingestion commands need:
// database coordinates, pool bounds, and the HTTP listen port.
type Config struct {
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	PoolMinConns   int32
	PoolMaxConns   int32
	AcquireTimeout time.Duration

	HTTPPort    int
	CORSOrigins []string

	LogLevel string
}

// Load reads configuration in order of precedence: environment
// variables, then .env files, then defaults. A missing .env file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_MIN_CONN", 2)
	v.SetDefault("DB_MAX_CONN", 10)
	v.SetDefault("DB_ACQUIRE_TIMEOUT", "5s")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "INFO")

	cfg := &Config{
		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetInt("DB_PORT"),
		DBName:         v.GetString("DB_NAME"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		PoolMinConns:   v.GetInt32("DB_MIN_CONN"),
		PoolMaxConns:   v.GetInt32("DB_MAX_CONN"),
		AcquireTimeout: v.GetDuration("DB_ACQUIRE_TIMEOUT"),
		HTTPPort:       v.GetInt("HTTP_PORT"),
		CORSOrigins:    splitOrigins(v.GetString("CORS_ORIGINS")),
		LogLevel:       v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PoolMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONN must be >= 0, got %d", c.PoolMinConns)
	}
	if c.PoolMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONN must be >= 1, got %d", c.PoolMaxConns)
	}
	if c.PoolMinConns > c.PoolMaxConns {
		return fmt.Errorf("DB_MIN_CONN (%d) must not exceed DB_MAX_CONN (%d)", c.PoolMinConns, c.PoolMaxConns)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("DB_ACQUIRE_TIMEOUT must be positive, got %s", c.AcquireTimeout)
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be in 1..65535, got %d", c.HTTPPort)
	}
	return nil
}

// DSN builds the PostgreSQL connection string for the configured
// database, with credentials escaped.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   c.DBName,
	}
	return u.String()
}

func splitOrigins(raw string) []string {
	if raw == "" || raw == "*" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
