package security

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"support-desk/monitoring"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per key in fixed Redis windows. A nil
// client lets every request through.
type RateLimiter struct {
	redis  *redis.Client
	logger *slog.Logger
}

func NewRateLimiter(redisClient *redis.Client, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{redis: redisClient, logger: logger}
}

// Allow counts one hit against key and reports whether the count is
// still within limit for the current window. The window is created and
// counted in one MULTI, so a counter never exists without its expiry.
// Redis failures allow the request.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.redis == nil || limit <= 0 {
		return true, nil
	}

	var incr *redis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return true, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(limit), nil
}

// Middleware limits requests per authenticated user, or per client IP
// for anonymous requests.
func (r *RateLimiter) Middleware(scope string, limit int, window time.Duration) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ok, err := r.Allow(e.Request.Context(), rateKey(scope, identify(e)), limit, window)
		if err != nil {
			r.logger.Warn("rate limiter unavailable", "scope", scope, "error", err)
		}
		if !ok {
			monitoring.TrackRateLimited(scope)
			return apis.NewTooManyRequestsError("Rate limit exceeded. Please try again later.", nil)
		}
		return e.Next()
	}
}

// AntiBotMiddleware rejects crawler user agents and caps anonymous
// request frequency per IP.
func (r *RateLimiter) AntiBotMiddleware(perMinute int) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return apis.NewForbiddenError("Access denied", nil)
		}

		ok, err := r.Allow(e.Request.Context(), "antibot:"+e.RealIP(), perMinute, time.Minute)
		if err != nil {
			r.logger.Warn("anti-bot counter unavailable", "error", err)
		}
		if !ok {
			monitoring.TrackRateLimited("antibot")
			return apis.NewTooManyRequestsError("Too many requests", nil)
		}
		return e.Next()
	}
}

func identify(e *core.RequestEvent) string {
	if e.Auth != nil {
		return "user:" + e.Auth.Id
	}
	return "ip:" + e.RealIP()
}

func rateKey(scope, id string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, id)
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	ua = strings.ToLower(ua)
	for _, pattern := range suspicious {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
