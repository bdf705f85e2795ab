package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/dalfonso89/currency-converter/internal/api"
	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/convert"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/platform"
	"github.com/dalfonso89/currency-converter/internal/ratelimit"
	"github.com/dalfonso89/currency-converter/internal/rates"
	"github.com/dalfonso89/currency-converter/internal/refresher"
	"github.com/dalfonso89/currency-converter/internal/session"
)

const (
	initialLoadTimeout = 15 * time.Second
	shutdownTimeout    = 30 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize services
	fetcher := rates.NewFetcher(cfg, logger)
	converterSession := session.New(fetcher, logger, session.WithFormatter(convert.NewFormatter(cfg.DisplayLocale)))
	rateLimiter := ratelimit.NewLimiter(cfg, logger)
	defer rateLimiter.Stop()

	// Create a shutdown context that works across platforms
	shutdownCtx, stop := platform.NewShutdownContext(context.Background())
	defer stop()

	loadCtx, cancelLoad := context.WithTimeout(shutdownCtx, initialLoadTimeout)
	if err := converterSession.Refresh(loadCtx); err != nil {
		logger.Warnf("Initial rates load failed, serving without a table: %v", err)
	}
	cancelLoad()

	handlers := api.NewHandlers(api.HandlerConfig{
		Logger:        logger,
		Fetcher:       fetcher,
		Session:       converterSession,
		RateLimiter:   rateLimiter,
		DefaultLocale: cfg.DisplayLocale,
	})

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(shutdownCtx)

	group.Go(func() error {
		logger.Info("Starting currency converter on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.RefreshSchedule != "" {
		ratesRefresher, err := refresher.New(cfg.RefreshSchedule, converterSession, logger)
		if err != nil {
			logger.Fatalf("Invalid refresh schedule: %v", err)
		}
		group.Go(func() error { return ratesRefresher.Run(groupCtx) })
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Shutting down server...")

		// Give outstanding requests time to complete
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(ctx)
	})

	if err := group.Wait(); err != nil {
		logger.Errorf("Server stopped with error: %v", err)
		return
	}
	logger.Info("Server exited")
}
