package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/models"
)

const maxBodyBytes = 1 << 20

// ErrFetchFailed is the only error FetchRates returns. Status codes and
// transport causes are logged, not exposed.
var ErrFetchFailed = errors.New("Something went wrong fetching the rates")

// RateFetcher fetches the rate table published for a date
type RateFetcher interface {
	FetchRates(ctx context.Context, date RateDate) (models.RatesResponse, error)
}

// Fetcher implements RateFetcher against the ratesapi.io HTTP API
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger

	inflight singleflight.Group
}

var _ RateFetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher for the configured rates API
func NewFetcher(configuration *config.Config, logger *logger.Logger) *Fetcher {
	timeout := configuration.RatesAPITimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		baseURL: strings.TrimRight(configuration.RatesAPIBaseURL, "/"),
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchRates performs one GET for the date. Nothing is cached: callers that
// arrive while a request for the same date is in flight share its result,
// every later call goes back to the API. The shared request is detached from
// any one caller's cancellation; each caller stops waiting only when its own
// ctx is done, and the client timeout bounds the request itself.
func (fetcher *Fetcher) FetchRates(ctx context.Context, date RateDate) (models.RatesResponse, error) {
	detached := context.WithoutCancel(ctx)
	results := fetcher.inflight.DoChan(date.String(), func() (interface{}, error) {
		return fetcher.fetch(detached, date)
	})

	select {
	case <-ctx.Done():
		fetcher.logger.WithField("date", date.String()).Debugf("Stopped waiting for rates: %v", ctx.Err())
		return models.RatesResponse{}, ErrFetchFailed
	case result := <-results:
		if result.Err != nil {
			return models.RatesResponse{}, result.Err
		}
		if result.Shared {
			fetcher.logger.Debugf("Shared in-flight rates request for %s", date)
		}
		return result.Val.(models.RatesResponse), nil
	}
}

func (fetcher *Fetcher) fetch(ctx context.Context, date RateDate) (models.RatesResponse, error) {
	url := fetcher.buildURL(date)
	log := fetcher.logger.WithFields(logrus.Fields{"date": date.String(), "url": url})

	response, err := fetcher.do(ctx, url)
	if err != nil {
		log.Warnf("Rates request failed: %v", err)
		return models.RatesResponse{}, ErrFetchFailed
	}

	log.WithField("rates", len(response.Rates)).Debug("Fetched rates")
	return response, nil
}

func (fetcher *Fetcher) do(ctx context.Context, url string) (models.RatesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.RatesResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := fetcher.httpClient.Do(req)
	if err != nil {
		return models.RatesResponse{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return models.RatesResponse{}, fmt.Errorf("rates API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.RatesResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var response models.RatesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return models.RatesResponse{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if response.Rates == nil {
		return models.RatesResponse{}, errors.New("invalid response: missing rates")
	}

	return response, nil
}

// buildURL substitutes the date literal into the endpoint path
func (fetcher *Fetcher) buildURL(date RateDate) string {
	return fetcher.baseURL + "/" + date.String()
}
