package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

// newTestRedisStore connects to PO_TEST_REDIS_ADDR with a unique key prefix
func newTestRedisStore(t *testing.T) *RedisKeyValueStore {
	t.Helper()
	addr := os.Getenv("PO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PO_TEST_REDIS_ADDR not set")
	}
	store, err := NewRedisKeyValueStore(context.Background(), RedisConfig{
		Addr:      addr,
		KeyPrefix: "po:test:" + uuid.NewString() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisKeyValueStore_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	store := NewRedisKeyValueStoreWithClient(client, "")
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, defaultKeyPrefix, store.keyPrefix)
	assert.Same(t, client, store.Client())
}

func TestRedisKeyValueStore_Lifecycle(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "window")
	assert.ErrorIs(t, err, shared.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "window", "15", 0))
	value, err := store.Get(ctx, "window")
	require.NoError(t, err)
	assert.Equal(t, "15", value)

	require.NoError(t, store.Set(ctx, "window", "25", time.Minute))
	ttl, err := store.Client().TTL(ctx, store.keyPrefix+"window").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, "window"))
	require.NoError(t, store.Delete(ctx, "window"))
	_, err = store.Get(ctx, "window")
	assert.ErrorIs(t, err, shared.ErrKeyNotFound)
}

func TestRedisLocker(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	locker := NewRedisLocker(store.Client(), store.keyPrefix+"lock:")

	release, err := locker.Lock(ctx, "order-1", time.Second)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "order-1", time.Second)
	assert.ErrorIs(t, err, shared.ErrLockNotObtained)

	other, err := locker.Lock(ctx, "order-2", time.Second)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "releasing twice is tolerated")

	again, err := locker.Lock(ctx, "order-1", time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
