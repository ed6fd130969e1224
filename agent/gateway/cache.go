package gateway

import (
	"sync"
	"time"

	contractx "github.com/torqline/shoptalk/agent/contract"
)

type cacheEntry struct {
	result    contractx.ToolResult
	expiresAt time.Time
}

// resultCache is shared by all concurrent turns. Entries are keyed by query
// fingerprint and independent of each other; expired entries are evicted
// lazily on read. A race where two turns both miss and both fill the same
// key is an idempotent overwrite, not a correctness problem.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]cacheEntry)}
}

func (c *resultCache) get(fingerprint string, now time.Time) (contractx.ToolResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if !ok {
		return contractx.ToolResult{}, false
	}
	if now.After(entry.expiresAt) {
		c.mu.Lock()
		if cur, still := c.entries[fingerprint]; still && now.After(cur.expiresAt) {
			delete(c.entries, fingerprint)
		}
		c.mu.Unlock()
		return contractx.ToolResult{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(fingerprint string, result contractx.ToolResult, ttl time.Duration, now time.Time) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[fingerprint] = cacheEntry{result: result, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}
