package testutils

import (
	"io"
	"time"

	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/models"
)

// MockLogger creates a logger that discards its output
func MockLogger() *logger.Logger {
	return logger.NewWithOutput("debug", io.Discard)
}

// MockConfig creates a configuration pointing at the given rates API
func MockConfig(ratesAPIBaseURL string) *config.Config {
	return &config.Config{
		Port:     "8081",
		LogLevel: "debug",

		RatesAPIBaseURL: ratesAPIBaseURL,
		RatesAPITimeout: 5 * time.Second,
		DisplayLocale:   config.DefaultDisplayLocale,

		RateLimitEnabled:  false,
		RateLimitRequests: 100,
		RateLimitWindow:   60 * time.Second,
		RateLimitBurst:    10,
	}
}

// MockLatestRates is the table served for "latest"
func MockLatestRates() models.RatesResponse {
	return models.RatesResponse{
		Base: "EUR",
		Date: "2021-03-26",
		Rates: models.RateTable{
			"GBP": 0.86,
			"TRY": 13.2,
			"USD": 1.18,
			"JPY": 129.5,
		},
	}
}

// MockHistoricalRates is the table served for 2020-01-02
func MockHistoricalRates() models.RatesResponse {
	return models.RatesResponse{
		Base: "EUR",
		Date: "2020-01-02",
		Rates: models.RateTable{
			"GBP": 0.85,
			"TRY": 6.67,
			"USD": 1.12,
			"JPY": 121.8,
		},
	}
}
