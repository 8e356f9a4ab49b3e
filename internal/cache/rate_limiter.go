package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter used to protect the Gemini
// token quota on session starts.
type RateLimiter interface {
	// Allow reports whether key may perform another action within the
	// current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type rateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) RateLimiter {
	return &rateLimiter{client: client}
}

func (l *rateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(window.Seconds()))

	count, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// First hit in this window owns the expiry.
		if err := l.client.Expire(ctx, bucket, window).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}
