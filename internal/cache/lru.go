// Package cache holds measured section heights keyed by content fingerprint.
package cache

import (
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jackzampolin/pagefit/internal/fingerprint"
)

// DefaultCapacity bounds the cache for long editing sessions.
const DefaultCapacity = 2048

// Stats reports cache effectiveness.
type Stats struct {
	Entries   int   `json:"entries" yaml:"entries"`
	Capacity  int   `json:"capacity" yaml:"capacity"`
	Hits      int64 `json:"hits" yaml:"hits"`
	Misses    int64 `json:"misses" yaml:"misses"`
	Evictions int64 `json:"evictions" yaml:"evictions"`
}

// LRU is a least-recently-used fingerprint→height cache. It is safe for
// concurrent use. A capacity of zero or less disables eviction.
type LRU struct {
	capacity int
	heights  *lru.Cache[fingerprint.ID, float64]

	hits, misses, evictions atomic.Int64
}

// NewLRU creates a cache holding at most capacity entries.
func NewLRU(capacity int) *LRU {
	size := capacity
	if size <= 0 {
		size = math.MaxInt32
	}
	// lru.New only fails for a non-positive size.
	heights, _ := lru.New[fingerprint.ID, float64](size)
	return &LRU{capacity: max(capacity, 0), heights: heights}
}

// Get returns the cached height for id and marks it recently used.
func (c *LRU) Get(id fingerprint.ID) (float64, bool) {
	h, ok := c.heights.Get(id)
	if !ok {
		c.misses.Add(1)
		return 0, false
	}
	c.hits.Add(1)
	return h, true
}

// Put stores height for id, evicting the least recently used entry when full.
func (c *LRU) Put(id fingerprint.ID, height float64) {
	if c.heights.Add(id, height) {
		c.evictions.Add(1)
	}
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	return c.heights.Len()
}

// Purge drops every entry. Counters are kept.
func (c *LRU) Purge() {
	c.heights.Purge()
}

// Stats returns a snapshot of the cache counters.
func (c *LRU) Stats() Stats {
	return Stats{
		Entries:   c.heights.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
