package domain

import (
	"context"
	"time"
)

// MarketCache provides fast market metadata lookups for the read API.
type MarketCache interface {
	Set(ctx context.Context, market Market) error
	Get(ctx context.Context, id string) (Market, error)
	Invalidate(ctx context.Context, id string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking. The resolution service takes a
// per-market lock as a fast-fail front door; correctness does not depend on
// it (the conditional resolved-flag write is the real guard).
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// EventBus fans settlement events out across process instances so every
// API node's websocket clients see a resolution regardless of which node
// performed it.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
