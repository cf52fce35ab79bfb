package shared

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when the key is absent
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore persists small pieces of presentation state (collapsed
// panels, last selected payment window, table preferences) on behalf of the
// UI layer. Keys are scoped by the caller, typically "<user>:<name>".
type KeyValueStore interface {
	// Get returns the stored value or ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value; a zero ttl keeps it until deleted
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// ErrLockNotObtained is returned by Locker.Lock when the key is already held
var ErrLockNotObtained = errors.New("lock not obtained")

// Locker serializes work on a key across goroutines or processes
type Locker interface {
	// Lock acquires key for at most ttl and returns the release function
	Lock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
