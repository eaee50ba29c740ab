package cache

import "sync"

// evictionBatchFraction is the fraction of capacity evicted at once when a
// Cache is full, trading a few extra evictions for fewer eviction passes
// under sustained insert pressure.
const evictionBatchFraction = 4 // 1/4 = 25%

// Cache is a single-mutex, thread-safe LRU cache. It is the simpler,
// unsharded sibling of ShardedCache: cheaper for low-contention call
// sites (a handful of goroutines, a few hundred entries) where sharding
// overhead buys nothing.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*cacheEntry[K, V]
	lru      *lruList[K]
	capacity int

	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New creates an empty Cache with the given capacity. If capacity <= 0,
// DefaultCapacity is used.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[K, V]{
		entries:  make(map[K]*cacheEntry[K, V]),
		lru:      newLRUList[K](),
		capacity: capacity,
	}
}

// Get retrieves a cached value by key, promoting it to most-recently-used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(entry.node)
	c.hits++
	return entry.value, true
}

// Set stores a value, evicting a batch of least-recently-used entries if
// the cache is at capacity.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		existing.value = value
		c.lru.MoveToFront(existing.node)
		return
	}

	if c.lru.Len() >= c.capacity {
		c.evictBatch()
	}

	node := c.lru.PushFront(key)
	c.entries[key] = &cacheEntry[K, V]{value: value, node: node}
}

// GetOrCreate returns a cached value or creates and stores it via create.
// create runs with the cache lock held; keep it fast.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.lru.MoveToFront(entry.node)
		c.hits++
		return entry.value
	}
	c.misses++

	value := create()

	if c.lru.Len() >= c.capacity {
		c.evictBatch()
	}
	node := c.lru.PushFront(key)
	c.entries[key] = &cacheEntry[K, V]{value: value, node: node}
	return value
}

// evictBatch removes roughly evictionBatchFraction of capacity worth of
// least-recently-used entries. Called with c.mu held.
func (c *Cache[K, V]) evictBatch() {
	n := c.capacity / evictionBatchFraction
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		oldest, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		delete(c.entries, oldest)
		c.evictions++
	}
}

// Delete removes an entry. Returns true if it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	c.lru.Remove(entry.node)
	delete(c.entries, key)
	return true
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*cacheEntry[K, V])
	c.lru.Clear()
}

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured capacity.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns current cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	total := c.hits + c.misses
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Len:           len(c.entries),
		Capacity:      c.capacity,
		TotalCapacity: c.capacity,
		Hits:          c.hits,
		Misses:        c.misses,
		HitRate:       hitRate,
		Evictions:     c.evictions,
	}
}

// ResetStats resets all statistics counters to zero.
func (c *Cache[K, V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits, c.misses, c.evictions = 0, 0, 0
}
