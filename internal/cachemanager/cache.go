// Package cachemanager provides a typed in-memory cache on top of go-cache.
// The chat pane uses it to avoid re-rendering markdown for turns that have
// not changed since the last frame.
package cachemanager

import (
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/shellpal/internal/log"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Cache is a typed wrapper over gocache.Cache.
type Cache[V any] struct {
	name  string
	cache *gocache.Cache
}

// New creates a cache. name is only used in log messages.
func New[V any](name string, defaultExpiration, cleanupInterval time.Duration) *Cache[V] {
	return &Cache[V]{
		name:  name,
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	value, found := c.cache.Get(key)
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		log.Error(log.CatUI, "wrong type in cache", "cache", c.name, "key", key)
		return zero, false
	}
	return v, true
}

// Set stores value under key with the default expiration.
func (c *Cache[V]) Set(key string, value V) {
	c.cache.SetDefault(key, value)
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Errors from load are returned and nothing is cached.
func (c *Cache[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Len returns the number of items, including expired ones not yet cleaned up.
func (c *Cache[V]) Len() int {
	return c.cache.ItemCount()
}

// Flush removes every item.
func (c *Cache[V]) Flush() {
	c.cache.Flush()
	log.Debug(log.CatUI, "cache flushed", "cache", c.name)
}

// Key builds a compact cache key from its parts.
func Key(parts ...string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(parts, "\x00")))
	return strconv.FormatUint(h.Sum64(), 16)
}
