package engine

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a two-tier string cache: L1 in process memory, L2 in Redis.
// L1 only lives for one run; L2 survives between runs. Not safe for
// concurrent use; the pipeline is single-threaded.
type Cache struct {
	l1         map[string]cacheEntry
	rdb        *redis.Client // nil if Redis unavailable
	ttl        time.Duration
	maxEntries int
}

type cacheEntry struct {
	data      string
	expiresAt time.Time
}

// NewCache builds the cache. redisURL may be empty to disable L2; an invalid
// or unreachable Redis also disables L2 with a warning.
func NewCache(ctx context.Context, redisURL string, ttl time.Duration, maxEntries int) *Cache {
	c := &Cache{l1: make(map[string]cacheEntry), ttl: ttl, maxEntries: maxEntries}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}
	return c
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("gt:%x", hash[:12])
}

// Get tries L1, then L2. An L2 hit is copied into L1.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	if e, ok := c.l1[key]; ok {
		if time.Now().Before(e.expiresAt) {
			metrics.CacheHits.Add(1)
			return e.data, true
		}
		delete(c.l1, key)
	}
	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Result()
		if err == nil {
			metrics.CacheHits.Add(1)
			c.store(key, data)
			return data, true
		}
		if !errors.Is(err, redis.Nil) {
			slog.Debug("cache: L2 get failed", slog.Any("error", err))
		}
	}
	metrics.CacheMisses.Add(1)
	return "", false
}

// Set stores value in both tiers.
func (c *Cache) Set(ctx context.Context, key, value string) {
	if c == nil {
		return
	}
	c.store(key, value)
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// Close releases the Redis connection, if any.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Cache) store(key, value string) {
	c.evictIfNeeded()
	c.l1[key] = cacheEntry{data: value, expiresAt: time.Now().Add(c.ttl)}
}

// evictIfNeeded drops expired entries first, then the oldest, until L1 is
// below maxEntries.
func (c *Cache) evictIfNeeded() {
	if c.maxEntries <= 0 || len(c.l1) < c.maxEntries {
		return
	}
	now := time.Now()
	for k, e := range c.l1 {
		if now.After(e.expiresAt) {
			delete(c.l1, k)
		}
	}
	for len(c.l1) >= c.maxEntries {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.l1 {
			// earlier expiry = older entry, since expiry = insert time + ttl
			if oldestKey == "" || e.expiresAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.expiresAt
			}
		}
		delete(c.l1, oldestKey)
	}
}
