package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/prepview-ai/session-core/pkg/logger"
)

// Redis is the remote TTL backend: one Redis list per session at
// {keyPrefix}{sessionID}. The TTL window is applied when the key is
// created and renewable via RefreshExpiry.
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	maxTries  uint64
	logger    *logger.Logger
}

// RedisConfig holds the remote backend settings.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
	MaxTries  uint64
}

// NewRedis connects a Redis backend. Returns nil when no address is
// configured, which selects the transient backend.
func NewRedis(cfg RedisConfig, log *logger.Logger) *Redis {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisWithClient(client, cfg, log)
}

// NewRedisWithClient wraps an existing client. Used by tests.
func NewRedisWithClient(client redis.UniversalClient, cfg RedisConfig, log *logger.Logger) *Redis {
	tries := cfg.MaxTries
	if tries == 0 {
		tries = 3
	}
	return &Redis{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
		maxTries:  tries,
		logger:    log,
	}
}

// Enabled reports whether the backend is usable.
func (r *Redis) Enabled() bool {
	return r != nil && r.client != nil
}

// Ping checks connectivity for readiness probes.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Key returns the storage key for a session.
func (r *Redis) Key(sessionID string) string {
	return r.keyPrefix + sessionID
}

// TTL returns the configured expiry window.
func (r *Redis) TTL() time.Duration {
	return r.ttl
}

// retry runs op with bounded exponential backoff and jitter.
func (r *Redis) retry(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 50 * time.Millisecond
	eb.MaxInterval = 500 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, r.maxTries), ctx)
	return backoff.Retry(op, policy)
}

// Append implements EventStore. The TTL is set when RPUSH creates the key.
func (r *Redis) Append(ctx context.Context, sessionID string, record []byte) error {
	key := r.Key(sessionID)
	err := r.retry(ctx, func() error {
		n, err := r.client.RPush(ctx, key, record).Result()
		if err != nil {
			return err
		}
		if n == 1 && r.ttl > 0 {
			return r.client.Expire(ctx, key, r.ttl).Err()
		}
		return nil
	})
	if err != nil {
		return storageErr(fmt.Sprintf("append %s", key), err)
	}
	return nil
}

// ReadAll implements EventStore.
func (r *Redis) ReadAll(ctx context.Context, sessionID string) ([][]byte, error) {
	key := r.Key(sessionID)
	var vals []string
	err := r.retry(ctx, func() error {
		var err error
		vals, err = r.client.LRange(ctx, key, 0, -1).Result()
		return err
	})
	if err != nil {
		return nil, storageErr(fmt.Sprintf("read %s", key), err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// Clear implements EventStore. Deleting a missing key is not an error.
func (r *Redis) Clear(ctx context.Context, sessionID string) error {
	key := r.Key(sessionID)
	err := r.retry(ctx, func() error {
		return r.client.Del(ctx, key).Err()
	})
	if err != nil {
		return storageErr(fmt.Sprintf("clear %s", key), err)
	}
	return nil
}

// RefreshExpiry implements EventStore: an exact EXPIRE on the session's
// base key, then a cursor-paginated SCAN over the session's
// delimiter-suffixed auxiliary keys ({base}:*). The delimiter keeps the
// scan from matching another session whose id merely extends this one.
// A key created concurrently may be missed by the current scan; it is
// picked up by the next activity-triggered refresh.
func (r *Redis) RefreshExpiry(ctx context.Context, sessionID string, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	base := r.Key(sessionID)

	refreshed := 0
	var live bool
	err := r.retry(ctx, func() error {
		ok, err := r.client.Expire(ctx, base, ttl).Result()
		if err != nil {
			return err
		}
		live = ok
		return nil
	})
	if err != nil {
		return 0, storageErr(fmt.Sprintf("expire %s", base), err)
	}
	if live {
		refreshed++
	}

	match := base + ":*"
	var cursor uint64
	for {
		var keys []string
		err := r.retry(ctx, func() error {
			k, next, err := r.client.Scan(ctx, cursor, match, 100).Result()
			if err != nil {
				return err
			}
			keys, cursor = k, next
			return nil
		})
		if err != nil {
			return refreshed, storageErr(fmt.Sprintf("scan %s", match), err)
		}
		for _, key := range keys {
			ok, err := r.client.Expire(ctx, key, ttl).Result()
			if err != nil {
				return refreshed, storageErr(fmt.Sprintf("expire %s", key), err)
			}
			if ok {
				refreshed++
			}
		}
		if cursor == 0 {
			return refreshed, nil
		}
	}
}
