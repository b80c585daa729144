// Package ratelimit provides a fixed-window request limiter backed by Redis.
//
// Counting is a plain INCR with a TTL equal to the window, so up to 2x the
// limit can pass across a window boundary. When Redis is unreachable the
// limiter fails open: every request is allowed and reported as unlimited.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"
)

const keyPrefix = "ratelimit:"

// Limiter answers whether an operation keyed by client identity may proceed.
type Limiter interface {
	// Check counts a hit for key and reports whether it is allowed and how
	// many hits remain in the current window.
	Check(ctx context.Context, key string, limit int64, window time.Duration) (allowed bool, remaining int64)
}

// Redis is the production Limiter implementation.
type Redis struct {
	client  redis.Cmdable
	timeout time.Duration
	outage  atomic.Bool
}

// NewRedis builds a Limiter on the given Redis client.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client, timeout: 5 * time.Second}
}

// Check implements Limiter with a fixed-window counter.
func (r *Redis) Check(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	full := keyPrefix + key

	count, err := r.client.Incr(ctx, full).Result()
	if err != nil {
		return r.failOpen(ctx, full, limit, err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, full, window).Err(); err != nil {
			return r.failOpen(ctx, full, limit, err)
		}
	}

	if r.outage.CompareAndSwap(true, false) {
		slog.InfoContext(ctx, "rate limiter store recovered")
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= limit, remaining
}

// failOpen allows the request and logs the outage once per incident.
func (r *Redis) failOpen(ctx context.Context, key string, limit int64, err error) (bool, int64) {
	if r.outage.CompareAndSwap(false, true) {
		slog.WarnContext(ctx, "rate limiter store unavailable, failing open", "key", key, "error", err)
	}
	return true, limit
}
