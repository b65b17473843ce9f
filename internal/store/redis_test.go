package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/prepview-ai/session-core/pkg/logger"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedisWithClient(client, RedisConfig{
		Addr:      mr.Addr(),
		KeyPrefix: "interview:session:",
		TTL:       ttl,
		MaxTries:  1,
	}, logger.NewNop())
	return r, mr
}

func TestRedisAppendReadOrder(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRedis(t, 4*time.Hour)

	var want []string
	for i := 0; i < 10; i++ {
		rec := fmt.Sprintf(`{"type":"ANSWER_RECEIVED","data":{"n":%d}}`, i)
		want = append(want, rec)
		if err := r.Append(ctx, "abc", []byte(rec)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := r.ReadAll(ctx, "abc")
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Fatalf("record %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRedisTTLSetOnCreate(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Hour)

	if err := r.Append(ctx, "abc", []byte("r1")); err != nil {
		t.Fatalf("append: %v", err)
	}

	key := r.Key("abc")
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("TTL after create = %v, want %v", ttl, time.Hour)
	}

	// A later append must not shorten the remaining window.
	mr.FastForward(30 * time.Minute)
	if err := r.Append(ctx, "abc", []byte("r2")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if ttl := mr.TTL(key); ttl != 30*time.Minute {
		t.Fatalf("TTL after second append = %v, want %v", ttl, 30*time.Minute)
	}
}

func TestRedisClearIdempotent(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRedis(t, time.Hour)

	r.Append(ctx, "abc", []byte("r1"))
	if err := r.Clear(ctx, "abc"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err := r.ReadAll(ctx, "abc")
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("clear left %d records", len(got))
	}
	if err := r.Clear(ctx, "abc"); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestRedisRefreshExpiry(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Hour)

	// One list key plus an auxiliary key sharing the session prefix.
	r.Append(ctx, "abc", []byte("r1"))
	auxKey := r.Key("abc") + ":meta"
	mr.Set(auxKey, "x")
	mr.SetTTL(auxKey, time.Minute)

	// Unrelated session must not be touched.
	r.Append(ctx, "other", []byte("r1"))
	otherTTL := mr.TTL(r.Key("other"))

	mr.FastForward(30 * time.Minute)

	n, err := r.RefreshExpiry(ctx, "abc", time.Hour)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n != 2 {
		t.Fatalf("refreshed %d keys, want 2", n)
	}
	if ttl := mr.TTL(r.Key("abc")); ttl != time.Hour {
		t.Fatalf("list key TTL = %v, want %v", ttl, time.Hour)
	}
	if ttl := mr.TTL(auxKey); ttl != time.Hour {
		t.Fatalf("aux key TTL = %v, want %v", ttl, time.Hour)
	}
	if ttl := mr.TTL(r.Key("other")); ttl != otherTTL-30*time.Minute {
		t.Fatalf("unrelated session TTL changed: %v", ttl)
	}

	// Idempotent: a second refresh still reports both keys.
	n, err = r.RefreshExpiry(ctx, "abc", time.Hour)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if n != 2 {
		t.Fatalf("second refresh reported %d keys, want 2", n)
	}
}

func TestRedisRefreshExpiryScopedToSession(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Hour)

	// One session id extending the other: refreshing "abc" must never
	// touch "abc2", and must not count its keys.
	r.Append(ctx, "abc", []byte("r1"))
	r.Append(ctx, "abc2", []byte("r1"))

	mr.FastForward(30 * time.Minute)

	n, err := r.RefreshExpiry(ctx, "abc", time.Hour)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n != 1 {
		t.Fatalf("refreshed %d keys, want 1", n)
	}
	if ttl := mr.TTL(r.Key("abc")); ttl != time.Hour {
		t.Fatalf("session key TTL = %v, want %v", ttl, time.Hour)
	}
	if ttl := mr.TTL(r.Key("abc2")); ttl != 30*time.Minute {
		t.Fatalf("sibling session TTL changed: %v, want %v", ttl, 30*time.Minute)
	}
}

func TestRedisRefreshExpiryDefaultTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, 2*time.Hour)

	r.Append(ctx, "abc", []byte("r1"))
	mr.FastForward(time.Hour)

	// ttl <= 0 falls back to the configured window.
	if _, err := r.RefreshExpiry(ctx, "abc", 0); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if ttl := mr.TTL(r.Key("abc")); ttl != 2*time.Hour {
		t.Fatalf("TTL = %v, want %v", ttl, 2*time.Hour)
	}
}

func TestRedisWriteFailurePropagates(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Hour)
	mr.Close()

	err := r.Append(ctx, "abc", []byte("r1"))
	if err == nil {
		t.Fatalf("append against a dead server should fail")
	}
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestRedisDisabledSelectsTransient(t *testing.T) {
	var r *Redis
	if r.Enabled() {
		t.Fatalf("nil backend should be disabled")
	}
	if NewRedis(RedisConfig{}, logger.NewNop()) != nil {
		t.Fatalf("empty addr should disable the redis backend")
	}

	tr := NewTransient()
	p := NewProvider(tr, r)
	if p.Remote() {
		t.Fatalf("provider with nil redis should not be remote")
	}
}
