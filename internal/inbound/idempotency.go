package inbound

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/redis"
)

const defaultIdempotencyScope = "twilio-sms"

// IdempotencyGuard marks provider message ids so a redelivered webhook is
// handled once.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		scope = defaultIdempotencyScope
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

// CheckAndMark returns true when messageSID was already seen.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, messageSID string) (bool, error) {
	if messageSID == "" {
		return false, errors.New("message sid is required")
	}
	key := g.store.IdempotencyKey(g.scope, messageSID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete forgets messageSID so a failed delivery can be retried.
func (g *IdempotencyGuard) Delete(ctx context.Context, messageSID string) error {
	if messageSID == "" {
		return errors.New("message sid is required")
	}
	key := g.store.IdempotencyKey(g.scope, messageSID)
	return g.store.Del(ctx, key)
}
