package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultRatesAPIBaseURL = "https://api.ratesapi.io/api"
	DefaultDisplayLocale   = "en-GB"
)

// Config holds all configuration for the application
type Config struct {
	Port     string
	LogLevel string

	// Rates API
	RatesAPIBaseURL string
	RatesAPITimeout time.Duration

	// Locale used to format and parse amounts when a request does not name one
	DisplayLocale string

	// Cron spec for refreshing the shared session's latest table; empty disables it
	RefreshSchedule string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitBurst    int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RatesAPIBaseURL: getEnv("RATES_API_BASE_URL", DefaultRatesAPIBaseURL),
		RatesAPITimeout: seconds(getEnv("RATES_API_TIMEOUT_SECONDS", "10"), 10),

		DisplayLocale:   getEnv("DISPLAY_LOCALE", DefaultDisplayLocale),
		RefreshSchedule: os.Getenv("RATES_REFRESH_SCHEDULE"),

		RateLimitEnabled:  getEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RateLimitRequests: atoiOr(getEnv("RATE_LIMIT_REQUESTS", "100"), 100),
		RateLimitWindow:   seconds(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"), 60),
		RateLimitBurst:    atoiOr(getEnv("RATE_LIMIT_BURST", "10"), 10),
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func atoiOr(s string, fallback int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return i
}

func seconds(s string, fallback int) time.Duration {
	return time.Duration(atoiOr(s, fallback)) * time.Second
}
