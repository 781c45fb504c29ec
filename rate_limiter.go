package smsverify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errLimiterUnavailable = errors.New("rate limiter backend unavailable")

// sendRateLimiter enforces the per-phone (and optionally per-IP) send ceiling
// using fixed-window Redis counters. Window reset is realized by key TTL
// expiry: the first INCR of a window creates the key with the window as its
// TTL, so a fresh window starts from a missing key.
type sendRateLimiter struct {
	redis  redis.UniversalClient
	prefix string
	config RateLimitConfig
}

func newSendRateLimiter(redisClient redis.UniversalClient, prefix string, cfg RateLimitConfig) *sendRateLimiter {
	return &sendRateLimiter{
		redis:  redisClient,
		prefix: prefix,
		config: cfg,
	}
}

// CheckAndIncrement records one send attempt for phone and reports whether it
// is allowed. The increment commits even when the attempt is denied: all
// attempts count, so a caller cannot reset its window by probing.
//
// A non-nil error means the backend was unreachable; the caller decides the
// fail-open policy, the limiter itself takes no position.
func (l *sendRateLimiter) CheckAndIncrement(ctx context.Context, phone, ip string) (bool, error) {
	count, err := l.incrementWithTTL(ctx, l.phoneKey(phone), l.config.Window)
	if err != nil {
		return false, err
	}
	if count > int64(l.config.MaxPerWindow) {
		return false, nil
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, l.ipKey(ip), l.config.Window)
		if err != nil {
			return false, err
		}
		if count > int64(l.config.MaxPerWindowIP) {
			return false, nil
		}
	}

	return true, nil
}

// Attempts returns the attempt counter for the current window. Missing keys
// return zero.
func (l *sendRateLimiter) Attempts(ctx context.Context, phone string) (int, error) {
	count, err := l.redis.Get(ctx, l.phoneKey(phone)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", errLimiterUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *sendRateLimiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errLimiterUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", errLimiterUnavailable, err)
		}
	}

	return count, nil
}

func (l *sendRateLimiter) phoneKey(phone string) string {
	return l.prefix + ":rate:" + phone
}

func (l *sendRateLimiter) ipKey(ip string) string {
	return l.prefix + ":rateip:" + ip
}
