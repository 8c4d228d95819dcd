package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campuslink/identity/config"
	"github.com/labstack/echo/v4"
)

type Config struct {
	Store        Store
	Rate         int
	Period       time.Duration
	KeyGenerator func(c echo.Context) string
}

// Middleware applies a fixed-window request cap per client. Every
// response carries the X-RateLimit headers; a rejected request also
// carries Retry-After.
func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = ClientIPKey
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			count, resetAt := cfg.Store.Hit(cfg.KeyGenerator(c), cfg.Period)

			remaining := max(cfg.Rate-count, 0)
			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Rate))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if count > cfg.Rate {
				retryAfter := max(int(time.Until(resetAt).Seconds()), 1)
				header.Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}

			return next(c)
		}
	}
}

// FromAppConfig builds the middleware from the server's rate limit
// section.
func FromAppConfig(cfg *config.Config, store Store) echo.MiddlewareFunc {
	return Middleware(&Config{
		Store:  store,
		Rate:   cfg.RateLimit.HTTPRate,
		Period: cfg.RateLimit.HTTPPeriod,
	})
}

// ClientIPKey buckets requests by resolved client address.
func ClientIPKey(c echo.Context) string {
	realIP := c.RealIP()
	if realIP == "" {
		realIP = "unknown"
	}
	return "rate_limit:" + realIP
}
