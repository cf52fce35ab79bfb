package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

const defaultKeyPrefix = "po:prefs:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisKeyValueStore implements KeyValueStore on Redis so UI state survives
// restarts and is shared across instances.
type RedisKeyValueStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisKeyValueStore connects and pings Redis
func NewRedisKeyValueStore(ctx context.Context, cfg RedisConfig) (*RedisKeyValueStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
		MaxRetries:  1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisKeyValueStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisKeyValueStoreWithClient wraps an existing client
func NewRedisKeyValueStoreWithClient(client *redis.Client, keyPrefix string) *RedisKeyValueStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisKeyValueStore{client: client, keyPrefix: keyPrefix}
}

// Get returns the value or shared.ErrKeyNotFound
func (s *RedisKeyValueStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", shared.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value; ttl <= 0 keeps it until deleted
func (s *RedisKeyValueStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *RedisKeyValueStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisKeyValueStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying client so a RedisLocker can share it
func (s *RedisKeyValueStore) Client() *redis.Client {
	return s.client
}

var _ shared.KeyValueStore = (*RedisKeyValueStore)(nil)

// RedisLocker implements shared.Locker with redislock
type RedisLocker struct {
	locker    *redislock.Client
	keyPrefix string
	retry     redislock.RetryStrategy
}

// NewRedisLocker creates a locker on client. Lock retries a few times with a
// short linear backoff before giving up.
func NewRedisLocker(client *redis.Client, keyPrefix string) *RedisLocker {
	return &RedisLocker{
		locker:    redislock.New(client),
		keyPrefix: keyPrefix,
		retry:     redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 3),
	}
}

// Lock obtains key or fails with shared.ErrLockNotObtained
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, l.keyPrefix+key, ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}, nil
}

var _ shared.Locker = (*RedisLocker)(nil)
