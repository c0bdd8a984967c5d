package gateway

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// responseCache is a bounded TTL cache for raw generation responses.
// A hit younger than the TTL short-circuits the network call entirely.
type responseCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
}

type cacheEntry struct {
	value     string
	timestamp time.Time
}

func newResponseCache(ttl time.Duration, maxEntries int) *responseCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &responseCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// cacheKey derives the lookup key from the model, a prompt prefix, and the
// token budget. Only the first 100 bytes of the prompt participate.
func cacheKey(model, prompt string, maxTokens int) string {
	prefix := prompt
	if len(prefix) > 100 {
		prefix = prefix[:100]
	}
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d", model, prefix, maxTokens))
	return fmt.Sprintf("%x", h[:])
}

func (c *responseCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if time.Since(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return entry.value, true
}

func (c *responseCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry{value: value, timestamp: time.Now()}
}

// Sweep removes expired entries. Called periodically by the owner.
func (c *responseCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *responseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *responseCache) evictOldestLocked() {
	var oldestKey string
	var oldestTS time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.timestamp.Before(oldestTS) {
			oldestKey = key
			oldestTS = entry.timestamp
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
