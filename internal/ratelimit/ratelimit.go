// Package ratelimit enforces the per-client request quota server-side.
// Counters live in Redis so every instance sees the same window; the
// limiter fails open when the store is unreachable, because quota is a cost
// control rather than a correctness requirement.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "quota:"

type Limiter interface {
	// Allow reports whether the identity may make another request in the
	// current window.
	Allow(ctx context.Context, identity string) bool
}

// counter is the slice of the redis client the limiter needs; tests swap in
// a fake.
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type fixedWindowLimiter struct {
	counter counter
	max     int64
	window  time.Duration
	logger  *zerolog.Logger
}

const defaultWindow = time.Minute

// NewFixedWindow builds a fixed-window limiter allowing max requests per
// window per identity. A window under one second would zero the divisor
// deriving the window index, so misconfigured windows snap to the default.
func NewFixedWindow(client *redis.Client, max int64, window time.Duration, logger *zerolog.Logger) Limiter {
	if window < time.Second {
		logger.Warn().Dur("window", window).Dur("default", defaultWindow).Msg("quota window below one second, using default")
		window = defaultWindow
	}

	return &fixedWindowLimiter{
		counter: client,
		max:     max,
		window:  window,
		logger:  logger,
	}
}

func (l *fixedWindowLimiter) Allow(ctx context.Context, identity string) bool {
	windowIndex := time.Now().Unix() / int64(l.window.Seconds())
	key := fmt.Sprintf("%s%s:%d", keyPrefix, identity, windowIndex)

	count, err := l.counter.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn().Err(err).Str("identity", identity).Msg("quota counter unavailable, failing open")
		return true
	}

	if count == 1 {
		// First hit in the window owns setting the expiry.
		if err := l.counter.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("failed to set quota window expiry")
		}
	}

	return count <= l.max
}

// Unlimited returns a limiter that always allows, used when quota
// enforcement is disabled by configuration.
func Unlimited() Limiter {
	return unlimited{}
}

type unlimited struct{}

func (unlimited) Allow(context.Context, string) bool { return true }
