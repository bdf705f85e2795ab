package rates_test

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalfonso89/currency-converter/internal/models"
	"github.com/dalfonso89/currency-converter/internal/rates"
	"github.com/dalfonso89/currency-converter/internal/testutils"
)

func newFetcher(t *testing.T) (*rates.Fetcher, *testutils.MockRatesServer) {
	t.Helper()
	server := testutils.NewMockRatesServer()
	t.Cleanup(server.Close)
	return rates.NewFetcher(testutils.MockConfig(server.URL()), testutils.MockLogger()), server
}

func TestFetcher_FetchRates_Latest(t *testing.T) {
	fetcher, _ := newFetcher(t)

	response, err := fetcher.FetchRates(context.Background(), rates.Latest)
	require.NoError(t, err)

	assert.Equal(t, "EUR", response.Base)
	require.NotEmpty(t, response.Rates)
	code := regexp.MustCompile(`^[A-Z]{3}$`)
	for currency, rate := range response.Rates {
		assert.Regexp(t, code, currency)
		assert.Greater(t, rate, 0.0)
	}
}

func TestFetcher_FetchRates_Historical(t *testing.T) {
	fetcher, _ := newFetcher(t)
	date, err := rates.ParseRateDate("2020-01-02")
	require.NoError(t, err)

	historical, err := fetcher.FetchRates(context.Background(), date)
	require.NoError(t, err)
	latest, err := fetcher.FetchRates(context.Background(), rates.Latest)
	require.NoError(t, err)

	assert.Equal(t, "2020-01-02", historical.Date)
	assert.NotEqual(t, latest.Date, historical.Date)
	assert.NotEqual(t, latest.Rates, historical.Rates)
}

func TestFetcher_FetchRates_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*testutils.MockRatesServer)
		date  string
	}{
		{
			name:  "server error",
			setup: func(s *testutils.MockRatesServer) { s.SetStatus(http.StatusInternalServerError) },
			date:  "latest",
		},
		{
			name:  "client error",
			setup: func(s *testutils.MockRatesServer) { s.SetStatus(http.StatusBadRequest) },
			date:  "latest",
		},
		{
			name:  "unknown date",
			setup: func(s *testutils.MockRatesServer) {},
			date:  "2001-05-05",
		},
		{
			name:  "malformed body",
			setup: func(s *testutils.MockRatesServer) { s.SetResponse("latest", `{"rates": [`) },
			date:  "latest",
		},
		{
			name:  "body without rates",
			setup: func(s *testutils.MockRatesServer) { s.SetResponse("latest", `{"base":"EUR"}`) },
			date:  "latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher, server := newFetcher(t)
			tt.setup(server)
			date, err := rates.ParseRateDate(tt.date)
			require.NoError(t, err)

			response, err := fetcher.FetchRates(context.Background(), date)

			require.ErrorIs(t, err, rates.ErrFetchFailed)
			assert.EqualError(t, err, "Something went wrong fetching the rates")
			assert.Nil(t, response.Rates)
		})
	}
}

func TestFetcher_FetchRates_NetworkFailure(t *testing.T) {
	server := testutils.NewMockRatesServer()
	url := server.URL()
	server.Close()

	fetcher := rates.NewFetcher(testutils.MockConfig(url), testutils.MockLogger())
	_, err := fetcher.FetchRates(context.Background(), rates.Latest)

	assert.EqualError(t, err, "Something went wrong fetching the rates")
}

func TestFetcher_FetchRates_NoCaching(t *testing.T) {
	fetcher, server := newFetcher(t)

	for i := 0; i < 3; i++ {
		_, err := fetcher.FetchRates(context.Background(), rates.Latest)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, server.Requests())
}

func TestFetcher_FetchRates_SharesInFlightRequest(t *testing.T) {
	fetcher, server := newFetcher(t)
	server.Hold()

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fetcher.FetchRates(context.Background(), rates.Latest)
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return server.Requests() >= 1 }, time.Second, 5*time.Millisecond)
	// give the remaining callers time to join the in-flight request
	time.Sleep(50 * time.Millisecond)
	server.Release()
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Less(t, server.Requests(), callers)
}

func TestFetcher_FetchRates_SharedRequestOutlivesCancelledCaller(t *testing.T) {
	fetcher, server := newFetcher(t)
	server.Hold()

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := fetcher.FetchRates(firstCtx, rates.Latest)
		firstDone <- err
	}()
	require.Eventually(t, func() bool { return server.Requests() == 1 }, time.Second, 5*time.Millisecond)

	secondDone := make(chan error, 1)
	var second models.RatesResponse
	go func() {
		var err error
		second, err = fetcher.FetchRates(context.Background(), rates.Latest)
		secondDone <- err
	}()
	// let the second caller join the in-flight request
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstDone, rates.ErrFetchFailed)

	server.Release()
	require.NoError(t, <-secondDone)
	assert.Equal(t, "2021-03-26", second.Date)
	assert.Equal(t, 1, server.Requests())
}

func TestFetcher_FetchRates_ContextCancelled(t *testing.T) {
	fetcher, server := newFetcher(t)
	server.Hold()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := fetcher.FetchRates(ctx, rates.Latest)
	assert.ErrorIs(t, err, rates.ErrFetchFailed)
}
