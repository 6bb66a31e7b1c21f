// Package config loads the checkout service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/currency"
)

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// DatabaseURL empty selects the in-memory cart store.
	DatabaseURL string

	RedisAddr       string
	CatalogCacheTTL time.Duration

	StorefrontAPIURL string
	RequestTimeout   time.Duration
	BreakerTimeout   time.Duration
	BreakerFailures  uint32

	Currency currency.Unit
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		StorefrontAPIURL: os.Getenv("STOREFRONT_API_URL"),
	}

	if cfg.StorefrontAPIURL == "" {
		return Config{}, fmt.Errorf("STOREFRONT_API_URL is empty")
	}

	var err error

	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CatalogCacheTTL, err = getDuration("CATALOG_CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BreakerTimeout, err = getDuration("BREAKER_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	failures, err := strconv.ParseUint(getEnv("BREAKER_FAILURES", "5"), 10, 32)
	if err != nil || failures == 0 {
		return Config{}, fmt.Errorf("BREAKER_FAILURES must be a positive integer")
	}
	cfg.BreakerFailures = uint32(failures)

	cfg.Currency, err = currency.ParseISO(getEnv("CURRENCY", "TND"))
	if err != nil {
		return Config{}, fmt.Errorf("CURRENCY: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}

	return d, nil
}
