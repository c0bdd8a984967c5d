package synthesis

import (
	"sync"
	"time"
)

// resultCache keeps finished synthesis results keyed by document-set
// fingerprint, guaranteeing at most one expensive synthesis per distinct
// document set per process lifetime. Bounded by entry count; cleared on
// restart.
type resultCache struct {
	mu         sync.Mutex
	entries    map[string]resultEntry
	maxEntries int
}

type resultEntry struct {
	combined CombinedAnalysis
	sections []StudyGuideSection
	storedAt time.Time
}

func newResultCache(maxEntries int) *resultCache {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &resultCache{
		entries:    make(map[string]resultEntry),
		maxEntries: maxEntries,
	}
}

func (c *resultCache) Get(fingerprint string) (CombinedAnalysis, []StudyGuideSection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[fingerprint]
	if !ok {
		return CombinedAnalysis{}, nil, false
	}
	return entry.combined, entry.sections, true
}

func (c *resultCache) Put(fingerprint string, combined CombinedAnalysis, sections []StudyGuideSection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[fingerprint] = resultEntry{
		combined: combined,
		sections: sections,
		storedAt: time.Now(),
	}
}

func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *resultCache) evictOldestLocked() {
	var oldestKey string
	var oldestTS time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestTS) {
			oldestKey = key
			oldestTS = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
