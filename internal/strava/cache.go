package strava

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Per-endpoint cache lifetimes. Recent activity pages change often;
// the athlete profile and recorded activity detail rarely do.
const (
	DefaultTTL          = 5 * time.Minute
	AthleteTTL          = 10 * time.Minute
	StatsTTL            = 5 * time.Minute
	ActivityPageOneTTL  = 2 * time.Minute
	ActivityPageTTL     = 5 * time.Minute
	ActivityDetailTTL   = 10 * time.Minute
	cacheSweepEverySets = 10
)

type cacheEntry struct {
	data      any
	createdAt time.Time
	expiresAt time.Time
}

// Cache is a mutex-guarded in-memory cache with per-entry TTL.
// Get evicts expired entries lazily; every cacheSweepEverySets-th Set
// additionally sweeps all expired entries to keep memory bounded.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	defaultTTL time.Duration
	sets       int
}

// NewCache creates a cache. A non-positive defaultTTL falls back to DefaultTTL.
func NewCache(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		defaultTTL: defaultTTL,
	}
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, data any) {
	c.SetTTL(key, data, c.defaultTTL)
}

// SetTTL stores a value with an explicit TTL.
func (c *Cache) SetTTL(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		data:      data,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}

	c.sets++
	if c.sets%cacheSweepEverySets == 0 {
		c.sweepLocked(now)
	}
}

// Get returns the cached value for key, or (nil, false) if absent or
// expired. Expired entries are removed rather than returned stale.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.data, true
}

// Has reports whether key holds an unexpired entry.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes an entry. Safe to call for missing keys.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// CacheKey builds a canonical cache key from an endpoint path and query
// parameters. Parameters are sorted so insertion order never changes
// the key.
func CacheKey(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return endpoint + "?" + strings.Join(pairs, "&")
}
