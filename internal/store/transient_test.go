package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTransientAppendReadOrder(t *testing.T) {
	ctx := context.Background()
	tr := NewTransient()

	var want []string
	for i := 0; i < 25; i++ {
		rec := fmt.Sprintf(`{"type":"QUESTION_ASKED","data":{"n":%d}}`, i)
		want = append(want, rec)
		if err := tr.Append(ctx, "s1", []byte(rec)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := tr.ReadAll(ctx, "s1")
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

func TestTransientUnknownSessionIsEmpty(t *testing.T) {
	tr := NewTransient()
	got, err := tr.ReadAll(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("unknown session should be empty, got %d records", len(got))
	}
}

func TestTransientSessionIsolation(t *testing.T) {
	ctx := context.Background()
	tr := NewTransient()
	tr.Append(ctx, "a", []byte("ra"))
	tr.Append(ctx, "b", []byte("rb"))

	if err := tr.Clear(ctx, "a"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if tr.Len("a") != 0 {
		t.Fatalf("clear did not empty session a")
	}
	if tr.Len("b") != 1 {
		t.Fatalf("clear leaked into session b")
	}

	// Idempotent
	if err := tr.Clear(ctx, "a"); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestTransientCopySemantics(t *testing.T) {
	ctx := context.Background()
	tr := NewTransient()

	buf := []byte("original")
	tr.Append(ctx, "s", buf)
	buf[0] = 'X'

	got, _ := tr.ReadAll(ctx, "s")
	if string(got[0]) != "original" {
		t.Fatalf("append captured caller buffer: %q", got[0])
	}

	got[0][0] = 'Y'
	again, _ := tr.ReadAll(ctx, "s")
	if string(again[0]) != "original" {
		t.Fatalf("internal state mutated via returned slice: %q", again[0])
	}
}

func TestTransientRefreshExpiryNoop(t *testing.T) {
	tr := NewTransient()
	n, err := tr.RefreshExpiry(context.Background(), "s", time.Hour)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n != 0 {
		t.Fatalf("transient refresh should report 0 keys, got %d", n)
	}
}

func TestTransientConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	tr := NewTransient()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				tr.Append(ctx, "shared", []byte(fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	if tr.Len("shared") != 8*50 {
		t.Fatalf("lost appends: got %d records", tr.Len("shared"))
	}
}

func TestProviderSelectsBackendPerCall(t *testing.T) {
	tr := NewTransient()
	p := NewProvider(tr, nil)

	if p.Remote() {
		t.Fatalf("provider without redis should not be remote")
	}
	if p.Store() != EventStore(tr) {
		t.Fatalf("provider should fall back to the transient backend")
	}
}
