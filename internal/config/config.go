// Package config loads the process configuration once at startup.
package config

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/PabloPavan/alerta_api/internal"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	// RedisURL is optional. Caching and login throttling are off without it.
	RedisURL string

	APIKey       string
	APIKeyMobile string

	ImageRootDir   string
	ImageBaseURL   string
	UploadMaxBytes int64

	DBQueryTimeout time.Duration
	DBMaxConns     int

	ReportsCacheTTL     time.Duration
	ReportsListCacheTTL time.Duration

	LoginRateLimit  int
	LoginRateWindow time.Duration

	SchemaAutoApply bool
}

// Load reads an optional .env file and then the environment. It fails when a
// required key is missing.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                internal.Env("APP_PORT", "8080"),
		DatabaseURL:         strings.TrimSpace(internal.Env("DATABASE_URL", "")),
		RedisURL:            strings.TrimSpace(internal.Env("REDIS_URL", "")),
		APIKey:              strings.TrimSpace(internal.Env("API_KEY", "")),
		APIKeyMobile:        strings.TrimSpace(internal.Env("API_KEY_MOBILE", "")),
		ImageRootDir:        internal.Env("IMAGE_ROOT_DIR", "uploads/report-images"),
		ImageBaseURL:        internal.Env("IMAGE_BASE_URL", "/uploads/report-images"),
		UploadMaxBytes:      int64(parseIntEnv("UPLOAD_MAX_BYTES", 10<<20)),
		DBQueryTimeout:      parseDurationEnv("DB_QUERY_TIMEOUT", 3*time.Second),
		DBMaxConns:          parseIntEnv("DB_MAX_CONNS", 10),
		ReportsCacheTTL:     parseDurationEnv("REPORTS_CACHE_TTL", 2*time.Minute),
		ReportsListCacheTTL: parseDurationEnv("REPORTS_LIST_CACHE_TTL", 30*time.Second),
		LoginRateLimit:      parseIntEnv("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow:     parseDurationEnv("LOGIN_RATE_WINDOW", time.Minute),
		SchemaAutoApply:     parseBoolEnv("SCHEMA_AUTO_APPLY", true),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.APIKey == "" {
		missing = append(missing, "API_KEY")
	}
	if cfg.APIKeyMobile == "" {
		missing = append(missing, "API_KEY_MOBILE")
	}
	if len(missing) > 0 {
		return Config{}, errors.New("missing required env: " + strings.Join(missing, ", "))
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 10 << 20
	}

	return cfg, nil
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return d
}

func parseIntEnv(key string, def int) int {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return n
}

func parseBoolEnv(key string, def bool) bool {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return b
}
