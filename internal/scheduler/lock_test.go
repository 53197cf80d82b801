package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	pkgredis "github.com/angelmondragon/crewtext-backend/pkg/redis"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *pkgredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := pkgredis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLockExclusive(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()
	key := client.LockKey("reminder-worker")

	first, err := NewRedisLock(client, key, time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(client, key, time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, err := second.Acquire(ctx); err != nil || ok {
		t.Fatalf("second acquire should fail: ok=%v err=%v", ok, err)
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release without ownership: %v", err)
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, err := second.Acquire(ctx); err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestRedisLockReleaseAfterExpiryKeepsNewOwner(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	key := client.LockKey("reminder-worker")

	first, _ := NewRedisLock(client, key, time.Minute)
	second, _ := NewRedisLock(client, key, time.Minute)

	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatalf("first acquire failed")
	}
	mr.FastForward(2 * time.Minute)
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatalf("second acquire after expiry failed")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if !mr.Exists(key) {
		t.Fatalf("stale owner must not delete the new owner's lock")
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatalf("expected error for nil client")
	}
	_, client := newRedis(t)
	if _, err := NewRedisLock(client, "", 0); err == nil {
		t.Fatalf("expected error for empty key")
	}
	lock, err := NewRedisLock(client, "k", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if lock.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", lock.ttl)
	}
}

func TestSchedulerWithRedisLock(t *testing.T) {
	_, client := newRedis(t)
	key := client.LockKey("reminder-worker")
	lock, _ := NewRedisLock(client, key, time.Minute)
	other, _ := NewRedisLock(client, key, time.Minute)

	job := &fakeJob{}
	s := newTestScheduler(t, job, Config{})
	s.lock = lock

	if ok, _ := other.Acquire(context.Background()); !ok {
		t.Fatalf("other acquire failed")
	}
	if err := s.RunNow(context.Background()); err != ErrLockHeld {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	_ = other.Release(context.Background())
	if err := s.RunNow(context.Background()); err != nil {
		t.Fatalf("run now: %v", err)
	}
	if job.calls.Load() != 1 {
		t.Fatalf("expected one job run, got %d", job.calls.Load())
	}
}
