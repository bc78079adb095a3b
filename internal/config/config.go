// Package config loads ski-status settings from the environment and the
// resort registry from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/pfrederiksen/ski-status/internal/logger"
)

// Config holds the runtime settings. Every field has a default, so a bare
// environment yields a working configuration.
type Config struct {
	RegistryFile string

	CacheTTL        time.Duration
	CacheMaxEntries int // 0 = unbounded

	FetchTimeout     time.Duration
	FetchRetries     int
	AcceptLanguage   string
	CloudflareBypass bool
	BreakerFailures  int // consecutive failures before a host is skipped, 0 = never

	Workers           int
	RequestsPerSecond float64

	RefreshInterval time.Duration
	ServerAddr      string

	Timezone string
	Location *time.Location

	LogLevel  logger.Level
	LogFormat logger.Format
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		RegistryFile:   getEnv("SKI_REGISTRY_FILE", ""),
		AcceptLanguage: getEnv("SKI_ACCEPT_LANGUAGE", "ja,en-US;q=0.8,en;q=0.6"),
		ServerAddr:     getEnv("SKI_SERVER_ADDR", ":8080"),
		Timezone:       getEnv("SKI_TIMEZONE", "Asia/Tokyo"),
	}

	var err error
	if cfg.CacheTTL, err = getEnvDuration("SKI_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheMaxEntries, err = getEnvInt("SKI_CACHE_MAX_ENTRIES", 0); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getEnvDuration("SKI_FETCH_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchRetries, err = getEnvInt("SKI_FETCH_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.CloudflareBypass, err = getEnvBool("SKI_CLOUDFLARE_BYPASS", true); err != nil {
		return nil, err
	}
	if cfg.BreakerFailures, err = getEnvInt("SKI_BREAKER_FAILURES", 3); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getEnvInt("SKI_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = getEnvFloat("SKI_REQUESTS_PER_SECOND", 2); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getEnvDuration("SKI_REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}

	if cfg.LogLevel, err = logger.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat, err = logger.ParseFormat(getEnv("LOG_FORMAT", "text")); err != nil {
		return nil, fmt.Errorf("invalid LOG_FORMAT: %w", err)
	}

	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid SKI_TIMEZONE %q: %w", cfg.Timezone, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that parsing alone does not catch.
func (c *Config) Validate() error {
	switch {
	case c.CacheTTL <= 0:
		return fmt.Errorf("SKI_CACHE_TTL must be positive, got %s", c.CacheTTL)
	case c.CacheMaxEntries < 0:
		return fmt.Errorf("SKI_CACHE_MAX_ENTRIES must not be negative, got %d", c.CacheMaxEntries)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("SKI_FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	case c.FetchRetries < 0:
		return fmt.Errorf("SKI_FETCH_RETRIES must not be negative, got %d", c.FetchRetries)
	case c.Workers <= 0:
		return fmt.Errorf("SKI_WORKERS must be positive, got %d", c.Workers)
	case c.RefreshInterval < time.Minute:
		return fmt.Errorf("SKI_REFRESH_INTERVAL must be at least 1m, got %s", c.RefreshInterval)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
