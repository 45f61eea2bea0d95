package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"detox-form-api/internal/common/config"
	apperrors "detox-form-api/internal/common/errors"
)

const redisKeyPrefix = "detox:submission:"

// Redis is the shared guard backend for multi-instance deployments. SET NX
// with a TTL gives cooldown and expiry in a single atomic command, no sweep
// goroutine needed.
type Redis struct {
	client   *redis.Client
	cooldown time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg config.RedisConfig, cooldown time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client, cooldown: cooldown}, nil
}

// NewRedisWithClient wraps an existing client, used by tests.
func NewRedisWithClient(client *redis.Client, cooldown time.Duration) *Redis {
	return &Redis{client: client, cooldown: cooldown}
}

// Allow sets the fingerprint key if absent. A failed SETNX means another
// submission claimed it within the cooldown window.
func (r *Redis) Allow(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := r.client.SetNX(ctx, redisKeyPrefix+fingerprint, 1, r.cooldown).Result()
	if err != nil {
		return false, apperrors.NewIOError("redis setnx", err)
	}
	return ok, nil
}

// Close releases the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
