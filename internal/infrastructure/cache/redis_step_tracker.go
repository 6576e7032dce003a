package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/payables/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultStepKeyPrefix namespaces step keys in a shared Redis
const DefaultStepKeyPrefix = "payables:steps:"

// RedisStepTracker shares completed plan steps between service instances.
// A key is written with SET NX so only the first writer wins.
type RedisStepTracker struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStepTracker connects to Redis and verifies the connection
func NewRedisStepTracker(ctx context.Context, opts *redis.Options) (*RedisStepTracker, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStepTrackerWithClient(client, DefaultStepKeyPrefix), nil
}

// NewRedisStepTrackerWithClient wraps an existing client
func NewRedisStepTrackerWithClient(client redis.UniversalClient, keyPrefix string) *RedisStepTracker {
	if keyPrefix == "" {
		keyPrefix = DefaultStepKeyPrefix
	}
	return &RedisStepTracker{client: client, keyPrefix: keyPrefix}
}

// MarkCompleted records key with ttl; false means another writer got there first
func (t *RedisStepTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark step %s: %w", key, err)
	}
	return ok, nil
}

// IsCompleted reports whether key exists
func (t *RedisStepTracker) IsCompleted(ctx context.Context, key string) (bool, error) {
	n, err := t.client.Exists(ctx, t.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check step %s: %w", key, err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (t *RedisStepTracker) Close() error {
	return t.client.Close()
}

var _ shared.StepTracker = (*RedisStepTracker)(nil)
