package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	GeoIPDBPath      string
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	StoreTimeout     time.Duration
	RateLimitPerMin  int

	// Free-tier policy knobs. The weekly grant is cumulative: unused
	// allowance accrues for the lifetime of the account.
	FreeWeeklyGrant    int
	FreeFavoritesLimit int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:        splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:19006")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		StoreTimeout:       time.Second * time.Duration(getEnvInt("STORE_TIMEOUT_SECONDS", 5)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		FreeWeeklyGrant:    getEnvInt("FREE_WEEKLY_GRANT", 2),
		FreeFavoritesLimit: getEnvInt("FREE_FAVORITES_LIMIT", 3),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// Development falls back to the in-memory profile store, every other
	// environment needs a real database.
	if cfg.DatabaseURL == "" && cfg.AppEnv != "development" {
		return nil, fmt.Errorf("DATABASE_URL is required when APP_ENV=%s", cfg.AppEnv)
	}

	if cfg.FreeWeeklyGrant < 0 || cfg.FreeFavoritesLimit < 0 {
		return nil, fmt.Errorf("free-tier limits must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
