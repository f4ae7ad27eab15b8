package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements SessionStore on a Redis backend
type redisStore struct {
	client  *redis.Client
	timeout time.Duration
	prefix  string
}

type RedisStoreOption func(*redisStore)

// WithTimeout sets the per-operation Redis timeout
func WithTimeout(timeout time.Duration) RedisStoreOption {
	return func(rs *redisStore) {
		rs.timeout = timeout
	}
}

// WithPrefix sets the key prefix for session entries
func WithPrefix(prefix string) RedisStoreOption {
	return func(rs *redisStore) {
		rs.prefix = prefix
	}
}

// NewRedisSessionStore creates a Redis-backed session store; expiry is
// delegated to Redis key TTLs
func NewRedisSessionStore(client *redis.Client, opts ...RedisStoreOption) SessionStore {
	store := &redisStore{
		client:  client,
		timeout: 5 * time.Second,
		prefix:  "session:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (rs *redisStore) Register(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = DefaultTTL
	}

	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	return rs.client.Set(ctx, rs.prefix+sessionID, "1", ttl).Err()
}

func (rs *redisStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	count, err := rs.client.Exists(ctx, rs.prefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (rs *redisStore) Revoke(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	return rs.client.Del(ctx, rs.prefix+sessionID).Err()
}

func (rs *redisStore) Close() error {
	return rs.client.Close()
}
