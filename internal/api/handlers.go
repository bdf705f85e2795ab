package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dalfonso89/currency-converter/internal/convert"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/middleware"
	"github.com/dalfonso89/currency-converter/internal/models"
	"github.com/dalfonso89/currency-converter/internal/ratelimit"
	"github.com/dalfonso89/currency-converter/internal/rates"
	"github.com/dalfonso89/currency-converter/internal/session"
)

// HandlerConfig holds the dependencies for the HTTP handlers
type HandlerConfig struct {
	Logger        *logger.Logger
	Fetcher       rates.RateFetcher
	Session       *session.Session
	RateLimiter   *ratelimit.Limiter
	DefaultLocale string
	Clock         func() time.Time
	Location      *time.Location
}

// Handlers contains all HTTP handlers
type Handlers struct {
	logger        *logger.Logger
	fetcher       rates.RateFetcher
	session       *session.Session
	rateLimiter   *ratelimit.Limiter
	defaultLocale string
	clock         func() time.Time
	location      *time.Location
	startTime     time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(config HandlerConfig) *Handlers {
	handlers := &Handlers{
		logger:        config.Logger,
		fetcher:       config.Fetcher,
		session:       config.Session,
		rateLimiter:   config.RateLimiter,
		defaultLocale: config.DefaultLocale,
		clock:         config.Clock,
		location:      config.Location,
		startTime:     time.Now(),
	}
	if handlers.defaultLocale == "" {
		handlers.defaultLocale = convert.DefaultLocale
	}
	if handlers.clock == nil {
		handlers.clock = time.Now
	}
	if handlers.location == nil {
		handlers.location = time.Local
	}
	return handlers
}

// SetupRoutes configures all the routes using Gin
func (handlers *Handlers) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(handlers.logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(handlers.corsMiddleware())

	if handlers.rateLimiter != nil {
		router.Use(handlers.rateLimitMiddleware())
	}

	router.GET("/health", handlers.HealthCheck)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/rates", handlers.GetLatestRates)
		apiV1.GET("/rates/:date", handlers.GetRatesByDate)
		apiV1.GET("/currencies", handlers.GetCurrencies)
		apiV1.POST("/convert", handlers.Convert)
		apiV1.POST("/convert/batch", handlers.ConvertBatch)

		if handlers.session != nil {
			sessionRoutes := apiV1.Group("/session")
			sessionRoutes.GET("", handlers.GetSession)
			sessionRoutes.PUT("/date", handlers.SelectSessionDate)
			sessionRoutes.POST("/rows", handlers.AddSessionRow)
			sessionRoutes.PUT("/rows/:index", handlers.UpdateSessionRow)
			sessionRoutes.DELETE("/rows/:index", handlers.RemoveSessionRow)
			sessionRoutes.POST("/rows/:index/convert", handlers.ConvertSessionRow)
		}
	}

	return router
}

// HealthCheck handles health check requests
func (handlers *Handlers) HealthCheck(context *gin.Context) {
	healthStatus := "healthy"
	if handlers.session != nil && handlers.session.State().Table == nil {
		healthStatus = "degraded"
	}

	context.JSON(http.StatusOK, models.HealthCheck{
		Status:    healthStatus,
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(handlers.startTime).String(),
	})
}

// writeErrorResponse writes an error response using Gin context
func (handlers *Handlers) writeErrorResponse(context *gin.Context, statusCode int, errorMessage, errorDetails string) {
	context.JSON(statusCode, models.ErrorResponse{
		Error:   errorMessage,
		Message: errorDetails,
		Code:    statusCode,
	})
}

// writeError maps a domain error onto its status code
func (handlers *Handlers) writeError(context *gin.Context, err error) {
	statusCode, errorMessage := classifyError(err)
	if statusCode >= http.StatusInternalServerError {
		handlers.logger.Errorf("%s: %v", errorMessage, err)
	}
	handlers.writeErrorResponse(context, statusCode, errorMessage, err.Error())
}

// corsMiddleware adds CORS headers using Gin middleware
func (handlers *Handlers) corsMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		context.Header("Access-Control-Allow-Origin", "*")
		context.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		context.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if context.Request.Method == "OPTIONS" {
			context.AbortWithStatus(http.StatusOK)
			return
		}

		context.Next()
	}
}

// rateLimitMiddleware provides rate limiting using Gin middleware
func (handlers *Handlers) rateLimitMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		clientIP := handlers.rateLimiter.GetClientIP(context.Request)

		if !handlers.rateLimiter.Allow(clientIP) {
			handlers.logger.Warnf("Rate limit exceeded for IP: %s", clientIP)
			context.Header("X-RateLimit-Limit", strconv.Itoa(handlers.rateLimiter.Configuration.RateLimitRequests))
			context.Header("X-RateLimit-Remaining", "0")
			context.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(handlers.rateLimiter.Configuration.RateLimitWindow).Unix(), 10))
			context.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			context.Abort()
			return
		}

		context.Next()
	}
}
