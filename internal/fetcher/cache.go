package fetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// cacheKey derives a stable key from a URL.
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// resultCache stores fetch results for the lifetime of one analysis run.
// A per-URL lock registry serializes concurrent fetches of the same URL
// while fetches of different URLs proceed independently.
type resultCache struct {
	mu      sync.Mutex
	results map[string]*FetchResult
	locks   map[string]*sync.Mutex
}

func newResultCache() *resultCache {
	return &resultCache{
		results: make(map[string]*FetchResult),
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockURL returns the lock for a URL, creating it on first access. The
// caller holds it for the duration of cache lookup plus population.
func (c *resultCache) lockURL(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// get returns the cached result for a key, if any. Callers must hold the
// URL lock.
func (c *resultCache) get(key string) (*FetchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[key]
	return r, ok
}

// put stores a result. Callers must hold the URL lock.
func (c *resultCache) put(key string, r *FetchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = r
}
