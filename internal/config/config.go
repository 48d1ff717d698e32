// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the portfolio platform, loaded from
// environment variables (with an optional .env file as a convenience layer
// for local development).
type Config struct {
	// Ambient
	DataDir  string // root directory for sqlite files and file-backed caches
	LogLevel string
	Port     int
	DevMode  bool

	// AI enrichment
	FKSAIBaseURL string

	// Signal store
	SignalsDir string

	// Market data adapter credentials. Adapters operate in a degraded,
	// unauthenticated mode when their key is empty (e.g. CoinGecko's free
	// tier), so none of these are required at startup.
	AlphaVantageAPIKey  string
	PolygonAPIKey       string
	CoinMarketCapAPIKey string
	CoinGeckoAPIKey     string

	// Collector
	CollectionIntervalSeconds int

	// Optional S3 backup of the signal archive. Signal persistence stays
	// local-file-first; S3 is a best-effort mirror, so an empty bucket
	// simply disables it.
	SignalsS3Bucket string
}

const (
	defaultSignalsDir = "data/signals"
	dockerSignalsDir  = "/app/signals"
)

// Load reads configuration from the process environment. If a .env file is
// present in the working directory it is loaded first (without overriding
// variables already set in the environment), mirroring how the platform is
// run both locally and inside containers.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		// A malformed .env is a configuration error; a missing one is not.
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		DataDir:  getEnv("DATA_DIR", "data"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		FKSAIBaseURL: getEnv("FKS_AI_BASE_URL", ""),

		SignalsDir: resolveSignalsDir(),

		AlphaVantageAPIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
		PolygonAPIKey:       getEnv("POLYGON_API_KEY", ""),
		CoinMarketCapAPIKey: getEnv("COINMARKETCAP_API_KEY", ""),
		CoinGeckoAPIKey:     getEnv("COINGECKO_API_KEY", ""),

		CollectionIntervalSeconds: getEnvAsInt("COLLECTION_INTERVAL_SECONDS", 3600),

		SignalsS3Bucket: getEnv("SIGNALS_S3_BUCKET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveSignalsDir implements the documented precedence for where signal
// artifacts are written: an explicit SIGNALS_DIR always wins; otherwise, if
// the conventional container mount point exists it is used; otherwise a
// repo-relative default is used so the platform runs out of the box on a
// bare checkout.
func resolveSignalsDir() string {
	if v := os.Getenv("SIGNALS_DIR"); v != "" {
		return v
	}
	if info, err := os.Stat(dockerSignalsDir); err == nil && info.IsDir() {
		return dockerSignalsDir
	}
	return defaultSignalsDir
}

// Validate checks invariants that must hold before the server starts.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.CollectionIntervalSeconds <= 0 {
		return fmt.Errorf("collection interval must be positive, got %d", c.CollectionIntervalSeconds)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	return nil
}

// getEnv returns the environment variable value or fallback if unset/empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt returns the environment variable parsed as an int, or fallback
// if unset or unparseable.
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsBool returns the environment variable parsed as a bool, or
// fallback if unset or unparseable. Accepts the usual strconv.ParseBool
// forms plus a bare "yes"/"no" for convenience.
func getEnvAsBool(key string, fallback bool) bool {
	value := strings.ToLower(os.Getenv(key))
	switch value {
	case "":
		return fallback
	case "yes":
		return true
	case "no":
		return false
	default:
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		return fallback
	}
}
