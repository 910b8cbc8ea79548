// Package config handles loading and validating configuration from
// environment variables. Tracker settings use the MAINT_* prefix; database
// and Redis settings use the shared POSTGRES_* and REDIS_* prefixes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the maintenance tracker service.
type Config struct {
	// Server
	Port     string
	LogLevel string

	// AdminAPIKey protects the operator API; empty disables it fail-secure.
	AdminAPIKey string

	// Timezone is the reference timezone for all local-time computations
	// (shift boundaries, digest hours, calendar dates).
	Timezone string

	// TickSeconds is the alert evaluation cadence.
	TickSeconds int

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("MAINT_PORT", "8084"),
		LogLevel: getEnv("MAINT_LOG_LEVEL", "info"),

		AdminAPIKey: os.Getenv("MAINT_ADMIN_API_KEY"),
		Timezone:    getEnv("MAINT_TIMEZONE", "Asia/Shanghai"),

		DBHost:     getEnv("POSTGRES_HOST", "localhost"),
		DBName:     getEnv("POSTGRES_DB", "maintenance"),
		DBUser:     getEnv("POSTGRES_USER", "maint_user"),
		DBPassword: getEnv("POSTGRES_PASSWORD", ""),
		DBSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	dbPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
	}
	cfg.DBPort = dbPort

	redisPort, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.RedisPort = redisPort

	tickSeconds, err := strconv.Atoi(getEnv("MAINT_TICK_SECONDS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAINT_TICK_SECONDS: %w", err)
	}
	cfg.TickSeconds = tickSeconds

	return cfg, nil
}

// Validate checks that the configuration is internally consistent. The
// timezone must resolve against the system tz database since every local
// boundary computation depends on it.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("config: MAINT_PORT is required")
	}
	if c.TickSeconds <= 0 {
		return fmt.Errorf("config: MAINT_TICK_SECONDS must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: invalid MAINT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the loaded reference timezone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// RedactedDSN returns the DSN with the password masked for safe logging.
func (c *Config) RedactedDSN() string {
	return fmt.Sprintf("postgres://%s:***@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// RedisAddr returns the Redis address in host:port format.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
