package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis adapts a redis client to the Cache interface. Backend errors are
// logged and reported as misses so widget rendering never depends on the
// cache being up.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the given address and verifies the connection.
// An empty address or a failed ping returns nil, which callers treat as
// "no Redis, fall back to memory".
func NewRedis(ctx context.Context, addr string) *Redis {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(ctx).Result(); err != nil {
		slog.WarnContext(ctx, "Redis unreachable, widget cache falls back to memory", "addr", addr, "error", err)
		client.Close()
		return nil
	}

	slog.InfoContext(ctx, "Redis widget cache connected", "addr", addr)
	return &Redis{client: client}
}

func (c *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.DebugContext(ctx, "Redis get failed", "key", key, "error", err)
		return "", false
	}
	return val, true
}

func (c *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.DebugContext(ctx, "Redis set failed", "key", key, "error", err)
	}
}

// Close releases the underlying connection.
func (c *Redis) Close() error {
	return c.client.Close()
}
