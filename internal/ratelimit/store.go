package ratelimit

import (
	"context"
	"time"
)

// Store keeps sliding-window request counters. Record adds a request under
// key at the current time, forgets requests older than window and returns
// how many remain, the new one included.
type Store interface {
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context, key string, window time.Duration) (int64, error)

func (f StoreFunc) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	return f(ctx, key, window)
}
