// Package cache backs the read-only widgets (currency rate, headlines)
// with a small keyed cache: Redis when configured, an in-process TTL LRU
// otherwise. Values are pre-marshaled JSON strings so both backends store
// the same thing.
package cache

import (
	"context"
	"time"
)

// Cache is a best-effort string cache. A miss is never an error; backends
// that fail degrade to always-miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}
