// SPDX-License-Identifier: MIT

// Package cache keeps recently read UPS snapshots so that bursts of API
// requests do not each shell out to pwrstat. Values are serialized JSON
// payloads; the API layer caches rendered responses, not structs.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/gowrstat/gowrstat/internal/metrics"
)

// Well-known cache keys.
const (
	KeyStatus        = "ups:status"
	KeyProperties    = "ups:properties"
	KeyConfiguration = "daemon:configuration"
)

// Cache is a TTL'd byte store. Implementations are safe for concurrent
// use.
type Cache interface {
	// Get returns the payload for key, or false when absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores payload under key for ttl.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
	// Delete removes key.
	Delete(ctx context.Context, key string)
	// Stats returns counters since process start.
	Stats() Stats
	// Close releases backend resources.
	Close() error
}

// Stats holds cache performance counters.
type Stats struct {
	Backend     string
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

type entry struct {
	payload []byte
	expires time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expires)
}

// memoryCache is the default in-process backend.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stats   Stats
	janitor *janitor
}

// NewMemory returns an in-process cache. A positive cleanupInterval
// starts a background sweep of expired entries; Close stops it.
func NewMemory(cleanupInterval time.Duration) Cache {
	c := &memoryCache{
		entries: make(map[string]*entry),
		stats:   Stats{Backend: "memory"},
	}
	if cleanupInterval > 0 {
		c.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
		}
		go c.janitor.run(c)
	}
	return c
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found || e.expired(time.Now()) {
		c.stats.Misses++
		metrics.IncCacheMiss("memory")
		return nil, false
	}
	c.stats.Hits++
	metrics.IncCacheHit("memory")
	return e.payload, true
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		payload: payload,
		expires: time.Now().Add(ttl),
	}
	c.stats.Sets++
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

func (c *memoryCache) Close() error {
	if c.janitor != nil {
		c.janitor.stop <- struct{}{}
	}
	return nil
}

func (c *memoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	count := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	return count
}

type janitor struct {
	interval time.Duration
	stop     chan struct{}
}

func (j *janitor) run(c *memoryCache) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-j.stop:
			return
		}
	}
}

// noopCache disables caching; every read goes to pwrstat.
type noopCache struct{}

// NewNoop returns a cache that stores nothing.
func NewNoop() Cache {
	return &noopCache{}
}

func (noopCache) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (noopCache) Set(context.Context, string, []byte, time.Duration) {}
func (noopCache) Delete(context.Context, string)                     {}
func (noopCache) Stats() Stats                                       { return Stats{Backend: "off"} }
func (noopCache) Close() error                                       { return nil }
