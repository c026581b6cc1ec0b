package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds encoded tagger responses in process. Keys come from
// Key(serviceURL, document), so one entry answers one document as one
// service tagged it. Values are the JSON the disk layer would write; the
// cache keeps its own copy so a caller reusing its buffer cannot alter a
// stored response.
type MemoryCache struct {
	responses *gocache.Cache
}

// NewMemoryCache creates a cache whose entries live for ttl. Expired
// responses are swept every cleanupInterval.
func NewMemoryCache(ttl time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		responses: gocache.New(ttl, cleanupInterval),
	}
}

// Get returns a copy of the response stored under key
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.responses.Get(key)
	if !found {
		return nil, false
	}
	return bytes.Clone(val.([]byte)), true
}

// Set stores an encoded response for ttl, 0 meaning the cache default.
// Values must be JSON, matching what the disk layer accepts.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if !json.Valid(value) {
		return fmt.Errorf("cache value for %s is not JSON", key)
	}
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.responses.Set(key, bytes.Clone(value), ttl)
	return nil
}

// Delete drops the response for key
func (c *MemoryCache) Delete(key string) error {
	c.responses.Delete(key)
	return nil
}

// Clear drops every response
func (c *MemoryCache) Clear() error {
	c.responses.Flush()
	return nil
}

// Len reports how many unexpired responses are held
func (c *MemoryCache) Len() int {
	return len(c.responses.Items())
}
