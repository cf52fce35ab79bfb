package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/config"
)

// 127.0.0.1:1 refuses connections immediately.
var unreachableRedis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1, KeyPrefix: "po:test:"}

func TestStoreFactory_Disabled(t *testing.T) {
	stores, err := NewStoreFactory(config.RedisConfig{}).CreateStores(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	assert.Equal(t, "memory", stores.Backend)
	assert.IsType(t, &InMemoryKeyValueStore{}, stores.KeyValue)
	assert.IsType(t, &InMemoryLocker{}, stores.Locker)
}

func TestStoreFactory_FallsBackWhenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a local port")
	}
	stores, err := NewStoreFactory(unreachableRedis).CreateStores(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })
	assert.Equal(t, "memory", stores.Backend)
}

func TestStoreFactory_NoFallback(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a local port")
	}
	_, err := NewStoreFactory(unreachableRedis, WithInMemoryFallback(false)).CreateStores(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis required")
}

func TestRedisKeyValueStore_WrapsTransportErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a local port")
	}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	store := NewRedisKeyValueStoreWithClient(client, "")
	t.Cleanup(func() { _ = store.Close() })

	_, err := store.Get(context.Background(), "u1:window")
	require.Error(t, err)
	assert.False(t, errors.Is(err, shared.ErrKeyNotFound))
	assert.Contains(t, err.Error(), "u1:window")

	assert.Error(t, store.Set(context.Background(), "u1:window", "15", 0))
	assert.Error(t, store.Delete(context.Background(), "u1:window"))
}
