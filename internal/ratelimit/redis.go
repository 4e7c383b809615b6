package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter shares counters between instances through Redis or Dragonfly.
type RedisLimiter struct {
	client redis.Cmdable
}

// NewRedisLimiter connects to the server at redisURL and checks the connection.
func NewRedisLimiter(ctx context.Context, redisURL string) (*RedisLimiter, *redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisLimiter{client: client}, client, nil
}

// Allow implements Limiter with INCR, setting the expiry on the first hit of a window.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	k := redisKeyPrefix + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("incr %s: %w", k, err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, window).Err(); err != nil {
			return Result{}, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	if n <= int64(limit) {
		return Result{Allowed: true}, nil
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("pttl %s: %w", k, err)
	}
	if ttl < 0 {
		// The key lost its expiry (e.g. the EXPIRE after INCR never ran); restore it.
		if err := l.client.Expire(ctx, k, window).Err(); err != nil {
			return Result{}, fmt.Errorf("expire %s: %w", k, err)
		}
		ttl = window
	}
	return Result{Allowed: false, RetryAfter: ttl}, nil
}
