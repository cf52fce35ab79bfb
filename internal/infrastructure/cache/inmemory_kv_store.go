package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

type kvEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

func (e kvEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// InMemoryKeyValueStore implements KeyValueStore with a map.
// Suitable for single-instance deployments and tests.
type InMemoryKeyValueStore struct {
	mu        sync.RWMutex
	entries   map[string]kvEntry
	clock     shared.Clock
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryKeyValueStore creates the store and starts a background sweep of
// expired entries. A nil clock uses the system clock.
func NewInMemoryKeyValueStore(clock shared.Clock) *InMemoryKeyValueStore {
	if clock == nil {
		clock = shared.NewSystemClock(time.UTC)
	}
	s := &InMemoryKeyValueStore{
		entries:  make(map[string]kvEntry),
		clock:    clock,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop(5 * time.Minute)
	return s
}

// Get returns the value or shared.ErrKeyNotFound
func (s *InMemoryKeyValueStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.expired(s.clock.Now()) {
		return "", shared.ErrKeyNotFound
	}
	return e.value, nil
}

// Set stores value; ttl <= 0 keeps it until deleted
func (s *InMemoryKeyValueStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := kvEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.clock.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Delete removes key
func (s *InMemoryKeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the sweep goroutine. Safe to call multiple times.
func (s *InMemoryKeyValueStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored entries, expired ones included
func (s *InMemoryKeyValueStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryKeyValueStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryKeyValueStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}

var _ shared.KeyValueStore = (*InMemoryKeyValueStore)(nil)

// InMemoryLocker implements shared.Locker within one process
type InMemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time // key -> expiry
	clock shared.Clock
}

// NewInMemoryLocker creates a locker; a nil clock uses the system clock
func NewInMemoryLocker(clock shared.Clock) *InMemoryLocker {
	if clock == nil {
		clock = shared.NewSystemClock(time.UTC)
	}
	return &InMemoryLocker{held: make(map[string]time.Time), clock: clock}
}

// Lock acquires key or fails with shared.ErrLockNotObtained. An expired
// hold is taken over.
func (l *InMemoryLocker) Lock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if expiry, ok := l.held[key]; ok && now.Before(expiry) {
		return nil, shared.ErrLockNotObtained
	}
	expiry := now.Add(ttl)
	l.held[key] = expiry

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(expiry) {
			delete(l.held, key)
		}
		return nil
	}, nil
}

var _ shared.Locker = (*InMemoryLocker)(nil)
