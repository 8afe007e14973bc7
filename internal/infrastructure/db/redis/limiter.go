package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 10
	defaultWindow      = 5 * time.Minute
)

// LoginLimiter counts login attempts per username+IP in a fixed window,
// backed by Redis. Key format: login_attempts:<username>:<ip>
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter wrapping the given Redis client.
// Non-positive limits fall back to defaults.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Allow records one attempt and reports whether the caller is still under the
// limit. The window starts at the first attempt and is not extended by
// subsequent ones.
func (l *LoginLimiter) Allow(ctx context.Context, username, ip string) (bool, error) {
	key := l.key(username, ip)

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("limiter incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("limiter expire: %w", err)
		}
	}

	return n <= int64(l.maxAttempts), nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, username, ip string) error {
	return l.client.Del(ctx, l.key(username, ip)).Err()
}

func (l *LoginLimiter) key(username, ip string) string {
	return fmt.Sprintf("login_attempts:%s:%s", username, ip)
}
