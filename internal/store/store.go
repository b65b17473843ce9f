// Package store provides the append-only per-session record store with a
// transient in-process backend and a Redis TTL backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EventStore is an ordered, append-only record list keyed by session id.
// Sessions are created lazily on first append; reading an unknown session
// yields an empty slice, not an error.
type EventStore interface {
	// Append adds one record to the end of the session's list. It either
	// succeeds or returns a storage error; it never drops silently.
	Append(ctx context.Context, sessionID string, record []byte) error

	// ReadAll returns every record for the session in append order.
	ReadAll(ctx context.Context, sessionID string) ([][]byte, error)

	// Clear removes all records for the session. Idempotent.
	Clear(ctx context.Context, sessionID string) error

	// RefreshExpiry extends the expiry of every storage key belonging to
	// the session and returns the number of keys refreshed. A no-op (0)
	// for backends without expiry.
	RefreshExpiry(ctx context.Context, sessionID string, ttl time.Duration) (int, error)
}

// ErrStorage marks backend failures. Write failures propagate to the
// caller; there is no fallback to another backend.
var ErrStorage = errors.New("storage error")

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// Provider selects the backend for a session lookup. Selection happens on
// every call so a configuration change takes effect on next access.
type Provider struct {
	transient *Transient
	redis     *Redis
}

// NewProvider builds a provider over the given backends. redis may be nil
// when no remote store is configured.
func NewProvider(transient *Transient, redis *Redis) *Provider {
	return &Provider{transient: transient, redis: redis}
}

// Store returns the backend to use for the next operation: Redis when
// configured and enabled, the transient registry otherwise.
func (p *Provider) Store() EventStore {
	if p.redis != nil && p.redis.Enabled() {
		return p.redis
	}
	return p.transient
}

// Remote reports whether the remote backend would currently be selected.
func (p *Provider) Remote() bool {
	return p.redis != nil && p.redis.Enabled()
}
