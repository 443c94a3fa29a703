package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheRepository is a string key/value cache with per-entry expiry.
// A zero ttl means the entry does not expire.
type cacheRepository interface {
	get(ctx context.Context, key string) (string, bool, error)
	set(ctx context.Context, key, value string, ttl time.Duration) error
}

/* ─── Redis ──────────────────────────────────────────────────────────── */

type redisCache struct {
	client *redis.Client
}

func newRedisCache(cfg redisConfig) *redisCache {
	return &redisCache{client: redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (r *redisCache) get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *redisCache) set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

/* ─── In-memory ──────────────────────────────────────────────────────── */

type memoryCacheEntry struct {
	value     string
	expiresAt time.Time // zero = never
}

// memoryCacheSweepInterval bounds how often set scans for expired entries.
const memoryCacheSweepInterval = time.Minute

// memoryCache is used when no Redis address is configured, and in tests.
// Expired entries are dropped on read and by a sweep piggybacked on set.
type memoryCache struct {
	mu        sync.Mutex
	data      map[string]memoryCacheEntry
	now       func() time.Time
	lastSweep time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]memoryCacheEntry), now: time.Now}
}

func (m *memoryCache) get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *memoryCache) set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= memoryCacheSweepInterval {
		m.sweep(now)
		m.lastSweep = now
	}

	e := memoryCacheEntry{value: value}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	m.data[key] = e
	return nil
}

// sweep deletes every expired entry. Callers hold m.mu.
func (m *memoryCache) sweep(now time.Time) {
	for key, e := range m.data {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.data, key)
		}
	}
}

func (m *memoryCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
