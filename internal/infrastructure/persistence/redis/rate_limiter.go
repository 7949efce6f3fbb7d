package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per key, shared by every process using the same Redis.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	action string
}

// NewRateLimiter creates a limiter allowing limit requests per window for each identifier.
func NewRateLimiter(client *Client, action string, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = TTLRateLimitWindow
	}
	return &RateLimiter{rdb: client.Redis(), limit: limit, window: window, action: action}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Allow counts one request for identifier and reports whether it fits the window.
// The counter key expires with the window, so the first request of a window sets the TTL.
func (l *RateLimiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	key := RateLimitKey(identifier, l.action)

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("redis: rate limit %s: %w", key, err)
	}

	count := int(incr.Val())
	reset := ttl.Val()
	if reset < 0 {
		reset = l.window
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= l.limit, Remaining: remaining, ResetIn: reset}, nil
}

// Limit returns the number of requests allowed per window.
func (l *RateLimiter) Limit() int {
	return l.limit
}
