// Package store tracks issued session ids so a server can expire or revoke
// them independently of token verification
package store

import (
	"context"
	"time"

	"github.com/plotkit/sessiontoken/utils"
)

const (
	DefaultTTL             = time.Hour * 4
	DefaultCleanupInterval = time.Minute * 15
	DefaultMaxSize         = 2000000

	// ErrStoreFull is returned when the memory store is at capacity and
	// eviction freed no room
	ErrStoreFull = utils.Error("session store full")
)

// SessionStore registers live sessions with a TTL
type SessionStore interface {
	// Register records a session id; registering an existing id refreshes
	// its TTL
	Register(ctx context.Context, sessionID string, ttl time.Duration) error
	// Exists reports whether the session id is registered and not expired
	Exists(ctx context.Context, sessionID string) (bool, error)
	// Revoke removes a session id; revoking an unknown id is not an error
	Revoke(ctx context.Context, sessionID string) error
	// Close releases store resources
	Close() error
}
