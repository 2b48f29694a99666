// Package middleware holds the echo middleware shared by every route
// group: platform resolution, request logging and rate limiting.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiterConfig tunes the per-client limiter.
type RateLimiterConfig struct {
	// Rate is the sustained requests per second allowed per client IP.
	Rate rate.Limit
	// Burst is the instantaneous burst allowed per client IP.
	Burst int
	// ExpirationTTL is how long an idle client's limiter is kept.
	ExpirationTTL time.Duration
}

// DefaultRateLimiterConfig allows 20 req/s with bursts of 40.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:          20,
		Burst:         40,
		ExpirationTTL: 3 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter returns an echo middleware limiting requests per client
// IP. Idle clients are evicted lazily on lookup.
func RateLimiter(config RateLimiterConfig) echo.MiddlewareFunc {
	var (
		mu          sync.Mutex
		clients     = make(map[string]*clientLimiter)
		lastCleanup = time.Now()
	)

	lookup := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastCleanup) > config.ExpirationTTL {
			for key, client := range clients {
				if now.Sub(client.lastSeen) > config.ExpirationTTL {
					delete(clients, key)
				}
			}
			lastCleanup = now
		}

		client, ok := clients[ip]
		if !ok {
			client = &clientLimiter{limiter: rate.NewLimiter(config.Rate, config.Burst)}
			clients[ip] = client
		}
		client.lastSeen = now
		return client.limiter
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !lookup(c.RealIP()).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
