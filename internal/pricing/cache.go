package pricing

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
)

// cacheEntry allows caching "unavailable" answers as well as values, so a
// missing price is not re-resolved for every candidate in a block.
type cacheEntry struct {
	value float64
	ok    bool
}

// Cache memoizes an underlying Source. Reads are lock-free and concurrent;
// each key is resolved by a single writer.
type Cache struct {
	source  Source
	entries *xsync.Map[string, cacheEntry]
}

// NewCache wraps source with a concurrent memoizing cache.
func NewCache(source Source) *Cache {
	return &Cache{
		source:  source,
		entries: xsync.NewMap[string, cacheEntry](),
	}
}

var _ Source = (*Cache)(nil)

// Price resolves through the cache, consulting the underlying source at most
// once per (token, slot).
func (c *Cache) Price(token string, slot uint64) (float64, bool) {
	key := fmt.Sprintf("%s@%d", token, slot)
	entry, _ := c.entries.LoadOrCompute(key, func() (cacheEntry, bool) {
		value, ok := c.source.Price(token, slot)
		return cacheEntry{value: value, ok: ok}, false
	})
	return entry.value, entry.ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.entries.Size()
}
