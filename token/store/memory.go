package store

import (
	"context"
	"sync"
	"time"
)

type memStore struct {
	sync.Mutex
	sessions        map[string]time.Time
	maxSize         int
	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

type MemStoreOption func(*memStore)

func WithMaxSize(maxSize int) MemStoreOption {
	return func(store *memStore) {
		store.maxSize = maxSize
	}
}

func WithCleanupInterval(interval time.Duration) MemStoreOption {
	return func(store *memStore) {
		store.cleanupInterval = interval
	}
}

// NewMemorySessionStore creates an in-process SessionStore; expired entries
// are dropped lazily on access and by a periodic cleanup loop
func NewMemorySessionStore(opts ...MemStoreOption) SessionStore {
	store := &memStore{
		sessions:        make(map[string]time.Time),
		cleanupInterval: DefaultCleanupInterval,
		maxSize:         DefaultMaxSize,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(store)
	}

	go store.cleanupLoop()
	return store
}

func (ms *memStore) Register(_ context.Context, sessionID string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = DefaultTTL
	}

	ms.Lock()
	defer ms.Unlock()

	if _, exists := ms.sessions[sessionID]; !exists && len(ms.sessions) >= ms.maxSize {
		ms.cleanupExpiredLocked(time.Now())
		if len(ms.sessions) >= ms.maxSize {
			return ErrStoreFull
		}
	}

	ms.sessions[sessionID] = time.Now().Add(ttl)
	return nil
}

func (ms *memStore) Exists(_ context.Context, sessionID string) (bool, error) {
	ms.Lock()
	defer ms.Unlock()

	expiry, exists := ms.sessions[sessionID]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(ms.sessions, sessionID)
		return false, nil
	}
	return true, nil
}

func (ms *memStore) Revoke(_ context.Context, sessionID string) error {
	ms.Lock()
	defer ms.Unlock()

	delete(ms.sessions, sessionID)
	return nil
}

func (ms *memStore) Close() error {
	ms.closeOnce.Do(func() {
		close(ms.done)
	})
	return nil
}

func (ms *memStore) cleanupExpiredLocked(now time.Time) {
	for sessionID, expiry := range ms.sessions {
		if now.After(expiry) {
			delete(ms.sessions, sessionID)
		}
	}
}

func (ms *memStore) cleanupLoop() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.Lock()
			ms.cleanupExpiredLocked(time.Now())
			ms.Unlock()
		case <-ms.done:
			return
		}
	}
}
