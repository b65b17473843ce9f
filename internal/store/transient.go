package store

import (
	"context"
	"sync"
	"time"
)

// Transient is the in-process backend: a keyed record list with no expiry,
// lost on restart. It is an injected registry rather than a package-level
// map so tests can construct isolated instances.
type Transient struct {
	mu       sync.RWMutex
	sessions map[string][][]byte
}

// NewTransient creates an empty registry.
func NewTransient() *Transient {
	return &Transient{sessions: make(map[string][][]byte)}
}

// Append implements EventStore. The record is copied so callers can reuse
// their buffer.
func (t *Transient) Append(_ context.Context, sessionID string, record []byte) error {
	rec := make([]byte, len(record))
	copy(rec, record)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sessionID] = append(t.sessions[sessionID], rec)
	return nil
}

// ReadAll implements EventStore. Returned slices are copies; mutating them
// does not affect the log.
func (t *Transient) ReadAll(_ context.Context, sessionID string) ([][]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	recs := t.sessions[sessionID]
	out := make([][]byte, len(recs))
	for i, r := range recs {
		c := make([]byte, len(r))
		copy(c, r)
		out[i] = c
	}
	return out, nil
}

// Clear implements EventStore.
func (t *Transient) Clear(_ context.Context, sessionID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
	return nil
}

// RefreshExpiry implements EventStore. The transient backend has no
// expiry, so this is a no-op.
func (t *Transient) RefreshExpiry(_ context.Context, _ string, _ time.Duration) (int, error) {
	return 0, nil
}

// Len reports the number of records for a session. Test helper.
func (t *Transient) Len(sessionID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions[sessionID])
}
