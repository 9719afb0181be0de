package geometry

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/physicsuniverse/Covariant-Derivative/tensor"
)

// Fingerprint identifies a metric by its canonical entries and coordinate
// basis.
func (m Metric) Fingerprint() (uint64, string) {
	key := m.cacheKey()
	return xxhash.Sum64String(key), key
}

func (m Metric) cacheKey() string {
	b := make([]byte, 0, 64)
	for _, c := range m.coords {
		b = append(b, c...)
		b = append(b, 0)
	}
	b = append(b, 1)
	for i := 0; i < m.g.Rows(); i++ {
		for j := 0; j < m.g.Cols(); j++ {
			b = append(b, m.g.Get(i, j).String()...)
			b = append(b, 0)
		}
	}
	return string(b)
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

type cacheEntry struct {
	key string
	arr *tensor.Array
}

// Cache memoizes Christoffel symbols per (metric, coordinates). Writes are
// serialized by a mutex and concurrent misses on the same key share one
// computation. With maxEntries > 0 the oldest entry is evicted first.
type Cache struct {
	mu         sync.Mutex
	entries    map[uint64]cacheEntry
	order      []uint64
	maxEntries int
	hits       uint64
	misses     uint64
	group      singleflight.Group
}

// NewCache returns a cache holding at most maxEntries connections; zero
// means unbounded.
func NewCache(maxEntries int) *Cache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Cache{entries: map[uint64]cacheEntry{}, maxEntries: maxEntries}
}

func (c *Cache) lookup(sum uint64, key string) (*tensor.Array, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[sum]; ok && e.key == key {
		c.hits++
		return e.arr, true
	}
	c.misses++
	return nil, false
}

func (c *Cache) store(sum uint64, key string, arr *tensor.Array) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[sum]; !ok {
		c.order = append(c.order, sum)
	}
	c.entries[sum] = cacheEntry{key: key, arr: arr}
	for c.maxEntries > 0 && len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// christoffel returns the cached connection of m or computes and stores it.
func (c *Cache) christoffel(m Metric, compute func() (*tensor.Array, error)) (*tensor.Array, error) {
	sum, key := m.Fingerprint()
	return c.load(sum, key, compute)
}

// load shares in-flight computations by the full key; sum only picks the
// slot.
func (c *Cache) load(sum uint64, key string, compute func() (*tensor.Array, error)) (*tensor.Array, error) {
	if arr, ok := c.lookup(sum, key); ok {
		return arr, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		arr, err := compute()
		if err != nil {
			return nil, err
		}
		c.store(sum, key, arr)
		return arr, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tensor.Array), nil
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset drops every entry and zeroes the counters.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[uint64]cacheEntry{}
	c.order = nil
	c.hits, c.misses = 0, 0
}
