package strava

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("athlete", "profile-data")

	got, ok := c.Get("athlete")
	require.True(t, ok)
	assert.Equal(t, "profile-data", got)
}

func TestCacheMiss(t *testing.T) {
	c := NewCache(time.Minute)

	got, ok := c.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)

	c.SetTTL("short", 42, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	got, ok := c.Get("short")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.False(t, c.Has("short"))
	// lazy eviction removed the entry
	assert.Equal(t, 0, c.Len())
}

func TestCacheOverwrite(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("key", "first")
	c.Set("key", "second")

	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, c.Len())
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("b"))

	c.Delete("missing") // no-op

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has("b"))
}

func TestCacheSweep(t *testing.T) {
	c := NewCache(time.Minute)

	for i := 0; i < 5; i++ {
		c.SetTTL(fmt.Sprintf("expired-%d", i), i, 5*time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 5, c.Len())

	// the sweep runs on the 10th Set; entries 6..9 don't trigger it
	for i := 5; i < 9; i++ {
		c.Set(fmt.Sprintf("live-%d", i), i)
	}
	assert.Equal(t, 9, c.Len())

	c.Set("live-9", 9)
	assert.Equal(t, 5, c.Len(), "sweep should drop the expired entries")
	for i := 5; i < 10; i++ {
		assert.True(t, c.Has(fmt.Sprintf("live-%d", i)))
	}
}

func TestCacheDefaultTTLFallback(t *testing.T) {
	c := NewCache(0)
	assert.Equal(t, DefaultTTL, c.defaultTTL)

	c = NewCache(time.Minute)
	c.SetTTL("key", "v", 0) // non-positive TTL falls back to the default
	assert.True(t, c.Has("key"))
}

func TestCacheKey(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		params   map[string]string
		want     string
	}{
		{
			name:     "no params",
			endpoint: "/athlete",
			params:   nil,
			want:     "/athlete",
		},
		{
			name:     "empty params",
			endpoint: "/athlete",
			params:   map[string]string{},
			want:     "/athlete",
		},
		{
			name:     "single param",
			endpoint: "/activities/123",
			params:   map[string]string{"include_all_efforts": "true"},
			want:     "/activities/123?include_all_efforts=true",
		},
		{
			name:     "params sorted",
			endpoint: "/athlete/activities",
			params:   map[string]string{"per_page": "30", "page": "2"},
			want:     "/athlete/activities?page=2&per_page=30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CacheKey(tt.endpoint, tt.params))
		})
	}
}

func TestCacheKeyOrderIndependent(t *testing.T) {
	a := CacheKey("/athlete/activities", map[string]string{"page": "1", "per_page": "30"})
	b := CacheKey("/athlete/activities", map[string]string{"per_page": "30", "page": "1"})
	assert.Equal(t, a, b)
}
