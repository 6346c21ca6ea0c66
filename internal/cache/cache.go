package cache

import (
	"context"
	"time"
)

// Cache is the read-cache the HTTP layer populates; this package only cares
// about invalidating it after post and account mutations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	Close() error
}
