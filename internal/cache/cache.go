// Package cache holds the Redis-backed read cache for self-lookup profile
// views. A cache failure is never surfaced: reads fall through to the store
// and writes are logged and dropped.
package cache

import (
	"context"
	"encoding/json"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const profileKeyPrefix = "registrar:profile:"

type Config struct {
	Addr string
	TTL  time.Duration
}

// ConfigFromEnv reads cache config from env vars. An empty REDIS_ADDR
// disables caching entirely.
func ConfigFromEnv() Config {
	ttl := 5 * time.Minute
	if v := os.Getenv("PROFILE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		}
	}
	return Config{Addr: os.Getenv("REDIS_ADDR"), TTL: ttl}
}

// ProfileCache caches serialized profile views keyed by business identifier.
// A nil *ProfileCache is valid and disables all operations.
type ProfileCache struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// New connects a ProfileCache, or returns nil when cfg.Addr is empty.
func New(cfg Config, logger *zap.SugaredLogger) *ProfileCache {
	if cfg.Addr == "" {
		return nil
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.Addr})
	return &ProfileCache{client: client, ttl: cfg.TTL, logger: logger}
}

// Get unmarshals a cached view into dst. Returns false on any miss or
// deserialization error.
func (c *ProfileCache) Get(ctx context.Context, publicID string, dst any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, profileKeyPrefix+publicID).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false
	}
	return true
}

// Set stores a view under the account's business identifier.
func (c *ProfileCache) Set(ctx context.Context, publicID string, view any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		c.logger.Warnw("profile cache marshal", "id", publicID, "err", err)
		return
	}
	if err := c.client.Set(ctx, profileKeyPrefix+publicID, data, c.ttl).Err(); err != nil {
		c.logger.Warnw("profile cache write", "id", publicID, "err", err)
	}
}

// Invalidate drops the cached view for an account. Called on every status
// change, profile update and soft delete.
func (c *ProfileCache) Invalidate(ctx context.Context, publicID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, profileKeyPrefix+publicID).Err(); err != nil {
		c.logger.Warnw("profile cache invalidate", "id", publicID, "err", err)
	}
}

// Close releases the underlying client.
func (c *ProfileCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
