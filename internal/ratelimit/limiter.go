package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/logger"
)

// idleClientTTL is how long a client may stay silent before its bucket is dropped
const idleClientTTL = 24 * time.Hour

// Limiter implements a token bucket rate limiter per IP
type Limiter struct {
	Configuration *config.Config
	logger        *logger.Logger

	// Map of IP -> token bucket
	clients      map[string]*client
	clientsMutex sync.Mutex

	// Cleanup goroutine control
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a new rate limiter
func NewLimiter(configuration *config.Config, logger *logger.Logger) *Limiter {
	rateLimiter := &Limiter{
		Configuration: configuration,
		logger:        logger,
		clients:       make(map[string]*client),
		cleanupTicker: time.NewTicker(5 * time.Minute),
		stopCleanup:   make(chan struct{}),
	}

	// Start cleanup goroutine
	go rateLimiter.cleanup()

	return rateLimiter
}

// Allow checks if a request from the given IP is allowed
func (rateLimiter *Limiter) Allow(clientIP string) bool {
	if !rateLimiter.Configuration.RateLimitEnabled {
		return true
	}

	rateLimiter.clientsMutex.Lock()
	entry, exists := rateLimiter.clients[clientIP]
	if !exists {
		entry = &client{limiter: rate.NewLimiter(rateLimiter.refillRate(), rateLimiter.Configuration.RateLimitBurst)}
		rateLimiter.clients[clientIP] = entry
	}
	entry.lastSeen = time.Now()
	rateLimiter.clientsMutex.Unlock()

	return entry.limiter.Allow()
}

// refillRate spreads RateLimitRequests evenly over RateLimitWindow
func (rateLimiter *Limiter) refillRate() rate.Limit {
	requests := rateLimiter.Configuration.RateLimitRequests
	window := rateLimiter.Configuration.RateLimitWindow
	if requests <= 0 || window <= 0 {
		return rate.Inf
	}
	return rate.Every(window / time.Duration(requests))
}

// GetClientIP extracts the real client IP from the request
func (rateLimiter *Limiter) GetClientIP(request *http.Request) string {
	// X-Forwarded-For lists the originating client first
	if xForwardedFor := request.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		first := strings.TrimSpace(strings.Split(xForwardedFor, ",")[0])
		if clientIP := net.ParseIP(first); clientIP != nil {
			return clientIP.String()
		}
		if host, _, err := net.SplitHostPort(first); err == nil {
			if clientIP := net.ParseIP(host); clientIP != nil {
				return clientIP.String()
			}
		}
	}

	// Check X-Real-IP header
	if xRealIP := request.Header.Get("X-Real-IP"); xRealIP != "" {
		if clientIP := net.ParseIP(strings.TrimSpace(xRealIP)); clientIP != nil {
			return clientIP.String()
		}
	}

	// Fall back to RemoteAddr
	clientIP, _, parseError := net.SplitHostPort(request.RemoteAddr)
	if parseError != nil {
		return request.RemoteAddr
	}
	return clientIP
}

// Clients returns the number of tracked clients
func (rateLimiter *Limiter) Clients() int {
	rateLimiter.clientsMutex.Lock()
	defer rateLimiter.clientsMutex.Unlock()
	return len(rateLimiter.clients)
}

// cleanup removes idle clients to prevent memory leaks
func (rateLimiter *Limiter) cleanup() {
	for {
		select {
		case <-rateLimiter.cleanupTicker.C:
			rateLimiter.evictIdle(time.Now())
		case <-rateLimiter.stopCleanup:
			rateLimiter.cleanupTicker.Stop()
			return
		}
	}
}

func (rateLimiter *Limiter) evictIdle(now time.Time) {
	rateLimiter.clientsMutex.Lock()
	defer rateLimiter.clientsMutex.Unlock()
	for clientIP, entry := range rateLimiter.clients {
		if now.Sub(entry.lastSeen) > idleClientTTL {
			delete(rateLimiter.clients, clientIP)
		}
	}
}

// Stop stops the cleanup goroutine
func (rateLimiter *Limiter) Stop() {
	rateLimiter.stopOnce.Do(func() { close(rateLimiter.stopCleanup) })
}
