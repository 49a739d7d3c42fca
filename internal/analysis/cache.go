package analysis

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"slices"
	"sync"

	"github.com/dusk-indust/semdiff/internal/structure"
)

// CacheKey derives the cache key of an analysis request. Each field is
// length-prefixed, so no choice of contents lets two requests collide.
func CacheKey(code1, code2 string, lang structure.Language) string {
	h := sha256.New()
	for _, field := range []string{code1, code2, string(lang)} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache memoizes finished analyses. It has no eviction: entries live until
// Clear. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Result
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Result)}
}

// Get returns a copy of the stored result with CacheHit set.
func (c *Cache) Get(key string) (*Result, bool) {
	c.mu.RLock()
	r, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	hit := r.clone()
	hit.CacheHit = true
	return hit, true
}

// Put stores a copy of r, so later changes by the caller are not visible to
// readers.
func (c *Cache) Put(key string, r *Result) {
	if r == nil {
		return
	}
	stored := r.clone()
	c.mu.Lock()
	c.entries[key] = stored
	c.mu.Unlock()
}

// Len reports the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry and reports how many there were.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	clear(c.entries)
	return n
}

// clone copies the result and its slices. The structural and semantic
// payloads are shared: nothing mutates them once an analysis finishes.
func (r *Result) clone() *Result {
	cp := *r
	cp.Differences = slices.Clone(r.Differences)
	cp.Recommendations = slices.Clone(r.Recommendations)
	return &cp
}
