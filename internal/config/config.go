package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	RateServiceURL        string
	TaxTableURLs          []string
	GeoServiceURL         string
	TransactionServiceURL string

	DefaultCountry string
	PivotCurrency  string

	OutboundTimeout    time.Duration
	TaxCacheTTL        time.Duration
	TaxRefreshInterval time.Duration

	QuoteMaxQuantity int
	QuoteRateLimit   int64
	QuoteRateWindow  time.Duration
	BodyLimitBytes   int64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		RateServiceURL:        k.String("RATE_SERVICE_URL"),
		TaxTableURLs:          splitAndTrim(k.String("TAX_TABLE_URLS")),
		GeoServiceURL:         k.String("GEO_SERVICE_URL"),
		TransactionServiceURL: k.String("TRANSACTION_SERVICE_URL"),

		DefaultCountry: valueOrDefault(strings.ToUpper(k.String("DEFAULT_COUNTRY")), "US"),
		PivotCurrency:  valueOrDefault(strings.ToUpper(k.String("PIVOT_CURRENCY")), "USD"),

		OutboundTimeout:    parseDuration(k.String("OUTBOUND_TIMEOUT"), "5s"),
		TaxCacheTTL:        parseDuration(k.String("TAX_CACHE_TTL"), "24h"),
		TaxRefreshInterval: parseDuration(k.String("TAX_REFRESH_INTERVAL"), "24h"),

		QuoteMaxQuantity: parseInt(k.String("QUOTE_MAX_QUANTITY"), 100),
		QuoteRateLimit:   int64(parseInt(k.String("QUOTE_RATE_LIMIT"), 120)),
		QuoteRateWindow:  parseDuration(k.String("QUOTE_RATE_WINDOW"), "1m"),
		BodyLimitBytes:   int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.RateServiceURL == "" {
		return nil, errors.New("RATE_SERVICE_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(trimmed, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
