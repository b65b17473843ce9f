package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/prepview-ai/session-core/internal/store"
	"github.com/prepview-ai/session-core/pkg/logger"
	"github.com/prepview-ai/session-core/pkg/metrics"
)

// TTLRefresher extends backend expiry for every storage key belonging to
// an active session. A no-op on the transient backend.
type TTLRefresher struct {
	provider *store.Provider
	ttl      time.Duration
	logger   *logger.Logger
}

// NewTTLRefresher creates a refresher with the configured TTL window.
func NewTTLRefresher(provider *store.Provider, ttl time.Duration, log *logger.Logger) *TTLRefresher {
	return &TTLRefresher{provider: provider, ttl: ttl, logger: log}
}

// Refresh extends the expiry of the session's keys and returns how many
// keys were refreshed. A key written concurrently may be missed by this
// scan; it self-heals on the next activity-triggered refresh.
func (r *TTLRefresher) Refresh(ctx context.Context, sessionID string) (int, error) {
	refreshed, err := r.provider.Store().RefreshExpiry(ctx, sessionID, r.ttl)
	if err != nil {
		return refreshed, err
	}
	if refreshed > 0 {
		metrics.TTLRefreshedKeysTotal.Add(float64(refreshed))
	}
	r.logger.Debug("session TTL refreshed",
		zap.String("session_id", sessionID),
		zap.Int("keys", refreshed),
		zap.Duration("ttl", r.ttl),
	)
	return refreshed, nil
}
