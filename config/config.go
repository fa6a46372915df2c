package config

import (
	"os"
	"strings"
	"time"

	"github.com/regalator/wms/pkg/database"
)

// Config holds the service configuration
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
	HTTPPort    string

	Database database.Config

	// Read-only Subiekt mirror; empty host disables the adapter
	SubiektDB database.Config

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	KafkaBrokers []string

	CORSOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		ServiceName: getEnv("OTEL_SERVICE_NAME", "regalator"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "regalator"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		SubiektDB: database.Config{
			Host:     getEnv("SUBIEKT_DB_HOST", ""),
			Port:     getEnv("SUBIEKT_DB_PORT", "5432"),
			User:     getEnv("SUBIEKT_DB_USER", "subiekt_ro"),
			Password: getEnv("SUBIEKT_DB_PASSWORD", ""),
			DBName:   getEnv("SUBIEKT_DB_NAME", "subiekt"),
			SSLMode:  getEnv("SUBIEKT_DB_SSLMODE", "disable"),
		},
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    getDuration("SCAN_SESSION_TTL", 8*time.Hour),
		KafkaBrokers:  getList("KAFKA_BROKERS", ""),
		CORSOrigins:   getList("CORS_ALLOWED_ORIGINS", "*"),
	}
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
