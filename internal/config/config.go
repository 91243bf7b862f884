// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the wallet tracker.
type Config struct {
	// Wallet list source (Google Sheets CSV export URL)
	WalletSheetURL string

	// Polymarket data API
	TradeAPIURL     string
	TradeFetchLimit int
	RequestsPerSec  float64

	// Polling
	PollInterval     time.Duration
	FetchConcurrency int

	// Dedupe
	SentIDsCap int

	// Adaptive loop (cmd/watch)
	AdaptiveMinDelay time.Duration
	AdaptiveMaxDelay time.Duration

	// HTTP server
	HTTPAddr string

	// Web Push
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushContact     string
	PushMinUSDC     float64

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		WalletSheetURL: getEnv("WALLET_SHEET_CSV_URL", ""),

		TradeAPIURL:     getEnv("TRADE_API_URL", "https://data-api.polymarket.com"),
		TradeFetchLimit: getEnvInt("TRADE_FETCH_LIMIT", 20),
		RequestsPerSec:  getEnvFloat("TRADE_API_RPS", 8),

		PollInterval:     time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 6)) * time.Second,
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 3),

		SentIDsCap: getEnvInt("SENT_IDS_CAP", 5000),

		AdaptiveMinDelay: time.Duration(getEnvInt("ADAPTIVE_MIN_DELAY_MS", 2000)) * time.Millisecond,
		AdaptiveMaxDelay: time.Duration(getEnvInt("ADAPTIVE_MAX_DELAY_MS", 20000)) * time.Millisecond,

		HTTPAddr: getEnv("HTTP_ADDR", ":8787"),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		PushContact:     getEnv("PUSH_CONTACT", "mailto:ops@example.com"),
		PushMinUSDC:     getEnvFloat("PUSH_MIN_USDC", 0),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.TradeAPIURL == "" {
		return fmt.Errorf("TRADE_API_URL is required")
	}

	if c.TradeFetchLimit < 1 {
		return fmt.Errorf("TRADE_FETCH_LIMIT must be at least 1")
	}

	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}

	if c.PollInterval < time.Second {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be at least 1")
	}

	if c.SentIDsCap < 2 {
		return fmt.Errorf("SENT_IDS_CAP must be at least 2")
	}

	if c.AdaptiveMinDelay <= 0 || c.AdaptiveMaxDelay < c.AdaptiveMinDelay {
		return fmt.Errorf("adaptive delay bounds are invalid")
	}

	return nil
}

// MaskedVAPIDPrivateKey returns the private key with most characters hidden for logging.
func (c *Config) MaskedVAPIDPrivateKey() string {
	return maskSecret(c.VAPIDPrivateKey)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as a float64 or returns a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
