package inbound

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyGuard(t *testing.T) {
	mr, guard := newGuard(t)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "SM1")
	if err != nil || seen {
		t.Fatalf("first mark: seen=%v err=%v", seen, err)
	}
	seen, err = guard.CheckAndMark(ctx, "SM1")
	if err != nil || !seen {
		t.Fatalf("second mark: seen=%v err=%v", seen, err)
	}
	if ttl := mr.TTL("ct:idempotency:twilio-sms:SM1"); ttl != time.Hour {
		t.Fatalf("unexpected ttl %s", ttl)
	}
	if err := guard.Delete(ctx, "SM1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seen, _ = guard.CheckAndMark(ctx, "SM1")
	if seen {
		t.Fatalf("expected key cleared")
	}

	if _, err := guard.CheckAndMark(ctx, ""); err == nil {
		t.Fatalf("expected error for empty sid")
	}
	if err := guard.Delete(ctx, ""); err == nil {
		t.Fatalf("expected error for empty sid")
	}
}

func TestNewIdempotencyGuardValidation(t *testing.T) {
	if _, err := NewIdempotencyGuard(nil, time.Hour, "x"); err == nil {
		t.Fatalf("expected error for nil store")
	}
	_, guard := newGuard(t)
	if _, err := NewIdempotencyGuard(guard.store, -time.Second, "x"); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}
