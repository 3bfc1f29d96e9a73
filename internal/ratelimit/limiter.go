package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result of a single Allow check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// RedisLimiter is a fixed-window counter stored in Redis.
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	now       func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, keyPrefix string) *RedisLimiter {
	return &RedisLimiter{client: client, keyPrefix: keyPrefix, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.now()
	slot := now.UnixNano() / int64(window)
	resetAt := time.Unix(0, (slot+1)*int64(window))
	rkey := fmt.Sprintf("%s:%s:%d", l.keyPrefix, key, slot)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, rkey)
	pipe.Expire(ctx, rkey, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{Allowed: true, Limit: limit, Remaining: limit}, err
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// NopLimiter allows everything. Used when Redis is disabled.
type NopLimiter struct{}

func (NopLimiter) Allow(_ context.Context, _ string, limit int, _ time.Duration) (Result, error) {
	return Result{Allowed: true, Limit: limit, Remaining: limit}, nil
}

// NewRedisClient opens a client and checks connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}
