package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeCounter struct {
	counts     map[string]int64
	expires    map[string]time.Duration
	incrErr    error
	expireErr  error
	expireHits int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{
		counts:  map[string]int64{},
		expires: map[string]time.Duration{},
	}
}

func (c *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if c.incrErr != nil {
		cmd.SetErr(c.incrErr)
		return cmd
	}
	c.counts[key]++
	cmd.SetVal(c.counts[key])
	return cmd
}

func (c *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	c.expireHits++
	if c.expireErr != nil {
		cmd.SetErr(c.expireErr)
		return cmd
	}
	c.expires[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func newTestLimiter(counter *fakeCounter, max int64, window time.Duration) *fixedWindowLimiter {
	logger := zerolog.Nop()
	return &fixedWindowLimiter{
		counter: counter,
		max:     max,
		window:  window,
		logger:  &logger,
	}
}

func TestAllow_UpToMaxThenDenied(t *testing.T) {
	counter := newFakeCounter()
	limiter := newTestLimiter(counter, 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ctx, "1.2.3.4") {
			t.Fatalf("request %d within quota was denied", i+1)
		}
	}

	if limiter.Allow(ctx, "1.2.3.4") {
		t.Error("request over quota was allowed")
	}
}

func TestAllow_IdentitiesCountedSeparately(t *testing.T) {
	counter := newFakeCounter()
	limiter := newTestLimiter(counter, 1, time.Hour)
	ctx := context.Background()

	if !limiter.Allow(ctx, "1.2.3.4") {
		t.Fatal("first identity denied its first request")
	}
	if !limiter.Allow(ctx, "5.6.7.8") {
		t.Error("second identity shares the first identity's counter")
	}
	if limiter.Allow(ctx, "1.2.3.4") {
		t.Error("first identity allowed over quota")
	}
}

func TestAllow_FirstHitSetsWindowExpiry(t *testing.T) {
	counter := newFakeCounter()
	limiter := newTestLimiter(counter, 10, time.Minute)
	ctx := context.Background()

	limiter.Allow(ctx, "1.2.3.4")
	limiter.Allow(ctx, "1.2.3.4")
	limiter.Allow(ctx, "1.2.3.4")

	if counter.expireHits != 1 {
		t.Errorf("expected a single expire call, got %d", counter.expireHits)
	}
	for _, ttl := range counter.expires {
		if ttl != time.Minute {
			t.Errorf("window expiry = %v, want %v", ttl, time.Minute)
		}
	}
}

func TestAllow_FailsOpenWhenCounterDown(t *testing.T) {
	counter := newFakeCounter()
	counter.incrErr = errors.New("connection refused")
	limiter := newTestLimiter(counter, 1, time.Hour)

	for i := 0; i < 5; i++ {
		if !limiter.Allow(context.Background(), "1.2.3.4") {
			t.Fatal("limiter must fail open when the counter store is unreachable")
		}
	}
}

func TestAllow_ExpireFailureStillCounts(t *testing.T) {
	counter := newFakeCounter()
	counter.expireErr = errors.New("connection reset")
	limiter := newTestLimiter(counter, 2, time.Hour)
	ctx := context.Background()

	if !limiter.Allow(ctx, "1.2.3.4") || !limiter.Allow(ctx, "1.2.3.4") {
		t.Fatal("requests within quota were denied")
	}
	if limiter.Allow(ctx, "1.2.3.4") {
		t.Error("quota must still be enforced when setting the expiry fails")
	}
}

func TestNewFixedWindow_SubSecondWindowSnapsToDefault(t *testing.T) {
	logger := zerolog.Nop()

	for _, window := range []time.Duration{0, -time.Minute, 500 * time.Millisecond} {
		limiter := NewFixedWindow(nil, 10, window, &logger).(*fixedWindowLimiter)
		if limiter.window != defaultWindow {
			t.Errorf("window %v: limiter window = %v, want %v", window, limiter.window, defaultWindow)
		}
	}

	limiter := NewFixedWindow(nil, 10, time.Second, &logger).(*fixedWindowLimiter)
	if limiter.window != time.Second {
		t.Errorf("one-second window must be kept, got %v", limiter.window)
	}
}

func TestUnlimited(t *testing.T) {
	limiter := Unlimited()
	for i := 0; i < 100; i++ {
		if !limiter.Allow(context.Background(), "anyone") {
			t.Fatal("unlimited limiter denied a request")
		}
	}
}
