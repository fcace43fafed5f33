package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"chii/internal/obs"
)

type cachedUser struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("backend down")
}

func (failingBackend) Set(context.Context, string, any, time.Duration) error {
	return errors.New("backend down")
}

func userKey(id int64) string { return "test:user:" + strconv.FormatInt(id, 10) }

func TestKeyspace_MemoryRoundTripReturnsCopies(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	ks := NewKeyspace[int64, cachedUser](mem, "test_user", time.Hour, userKey)

	if _, ok := ks.Get(ctx, 1); ok {
		t.Fatalf("expected miss on empty cache")
	}
	ks.Set(ctx, 1, cachedUser{ID: 1, Nickname: "a"})

	got, ok := ks.Get(ctx, 1)
	if !ok || got.ID != 1 || got.Nickname != "a" {
		t.Fatalf("unexpected cached value: %+v ok=%v", got, ok)
	}
	got.Nickname = "mutated"
	again, _ := ks.Get(ctx, 1)
	if again.Nickname != "a" {
		t.Fatalf("cached value must not be shared, got %q", again.Nickname)
	}
}

func TestKeyspace_MemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	mem := NewMemory()
	mem.SetClock(func() time.Time { return now })
	ks := NewKeyspace[int64, cachedUser](mem, "test_user_expiry", time.Hour, userKey)

	ks.Set(ctx, 7, cachedUser{ID: 7})
	now = now.Add(time.Hour - time.Second)
	if _, ok := ks.Get(ctx, 7); !ok {
		t.Fatalf("expected hit before ttl")
	}
	now = now.Add(time.Second)
	if _, ok := ks.Get(ctx, 7); ok {
		t.Fatalf("expected miss at ttl")
	}
	if mem.Len() != 0 {
		t.Fatalf("expected expired entry dropped")
	}
}

func TestKeyspace_BackendErrorIsMiss(t *testing.T) {
	ctx := context.Background()
	ks := NewKeyspace[int64, cachedUser](failingBackend{}, "test_failing", time.Hour, userKey)

	before := testutil.ToFloat64(obs.CacheRequestsCounter("test_failing", obs.CacheError))
	ks.Set(ctx, 1, cachedUser{ID: 1})
	if _, ok := ks.Get(ctx, 1); ok {
		t.Fatalf("backend error must be treated as miss")
	}
	after := testutil.ToFloat64(obs.CacheRequestsCounter("test_failing", obs.CacheError))
	if after-before != 2 {
		t.Fatalf("expected 2 recorded errors, got %v", after-before)
	}
}

func TestKeyspace_NilDisabled(t *testing.T) {
	if NewKeyspace[int64, cachedUser](nil, "x", time.Hour, userKey) != nil {
		t.Fatalf("expected nil keyspace without backend")
	}
	if NewKeyspace[int64, cachedUser](NewMemory(), "x", 0, userKey) != nil {
		t.Fatalf("expected nil keyspace with zero ttl")
	}
	var ks *Keyspace[int64, cachedUser]
	ks.Set(context.Background(), 1, cachedUser{})
	if _, ok := ks.Get(context.Background(), 1); ok {
		t.Fatalf("nil keyspace must miss")
	}
}

func TestBadger_RoundTrip(t *testing.T) {
	db, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	ks := NewKeyspace[int64, cachedUser](NewBadger(db), "test_badger", time.Hour, userKey)

	if _, ok := ks.Get(ctx, 42); ok {
		t.Fatalf("expected miss on empty badger")
	}
	ks.Set(ctx, 42, cachedUser{ID: 42, Nickname: "n"})
	got, ok := ks.Get(ctx, 42)
	if !ok || got != (cachedUser{ID: 42, Nickname: "n"}) {
		t.Fatalf("unexpected value: %+v ok=%v", got, ok)
	}
}

func TestBadger_CanceledContext(t *testing.T) {
	db, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBadger(db)
	if err := b.Set(ctx, "k", 1, time.Minute); err == nil {
		t.Fatalf("expected error for canceled context")
	}
	var v int
	if _, err := b.Get(ctx, "k", &v); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
