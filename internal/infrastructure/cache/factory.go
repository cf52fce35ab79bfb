package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/config"
)

// Stores bundles the preference store and the decision locker built from
// the same backend.
type Stores struct {
	KeyValue shared.KeyValueStore
	Locker   shared.Locker
	Backend  string // "redis" or "memory"
}

// Close releases the underlying backend
func (s Stores) Close() error {
	return s.KeyValue.Close()
}

// StoreFactory creates stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	clock                 shared.Clock
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithClock sets the clock used by in-memory stores
func WithClock(clock shared.Clock) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.clock = clock
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Default true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemory builds process-local stores
func (f *StoreFactory) CreateInMemory() Stores {
	return Stores{
		KeyValue: NewInMemoryKeyValueStore(f.clock),
		Locker:   NewInMemoryLocker(f.clock),
		Backend:  "memory",
	}
}

// CreateStores uses Redis when enabled, falling back to memory if allowed
func (f *StoreFactory) CreateStores(ctx context.Context) (Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory preference store")
		return f.CreateInMemory(), nil
	}

	kv, err := NewRedisKeyValueStore(ctx, RedisConfig{
		Addr:      f.redisConfig.Addr(),
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.redisConfig.KeyPrefix,
	})
	if err == nil {
		f.logger.Info("using Redis preference store", zap.String("addr", f.redisConfig.Addr()))
		return Stores{
			KeyValue: kv,
			Locker:   NewRedisLocker(kv.Client(), f.redisConfig.KeyPrefix+"lock:"),
			Backend:  "redis",
		}, nil
	}

	if !f.allowInMemoryFallback {
		return Stores{}, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Preferences and decision locks will not be shared across instances.",
		zap.Error(err),
	)
	return f.CreateInMemory(), nil
}
