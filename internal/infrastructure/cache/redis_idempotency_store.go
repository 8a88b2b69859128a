package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vaxtrack/backend/internal/application/scheduling"
	"github.com/vaxtrack/backend/internal/infrastructure/config"
)

const defaultKeyPrefix = "reservation:idempotency:"

// RedisIdempotencyStore implements scheduling.IdempotencyStore using Redis.
// Suitable for distributed deployments where multiple instances need to
// share idempotency state.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store
func NewRedisIdempotencyStore(cfg config.RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Claim atomically claims an idempotency key via SETNX. Returns true when the
// key was newly claimed, false with the existing value when already claimed.
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key, value string, ttl time.Duration) (bool, string, error) {
	fullKey := s.keyPrefix + key

	claimed, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if claimed {
		return true, "", nil
	}

	existing, err := s.client.Get(ctx, fullKey).Result()
	if err == redis.Nil {
		// Key expired between SETNX and GET, treat as claimed by someone else
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return false, existing, nil
}

// Release removes a claimed key so a later retry can execute again
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ scheduling.IdempotencyStore = (*RedisIdempotencyStore)(nil)
