// internal/pagecache/cache.go
package pagecache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

// Hash identifies page content
type Hash = [32]byte

// Sum returns the content hash of a page
func Sum(data []byte) Hash {
	return blake3.Sum256(data)
}

// cacheEntry tracks one transcoded page with LRU metadata
type cacheEntry struct {
	hash    Hash
	data    []byte
	hits    uint64
	lruNode *list.Element
}

// Cache maps source page content to its transcoded bytes so identical pages
// (scanner credits, blank pages) shared by many archives are encoded once.
// It is safe for concurrent use and bounded by the total size of cached outputs.
type Cache struct {
	mu       sync.Mutex
	entries  map[Hash]*cacheEntry
	lruList  *list.List // Front is most recently used
	size     uint64
	maxBytes uint64 // 0 = unlimited

	// Statistics
	lookups   atomic.Uint64
	hits      atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache with unlimited capacity
func New() *Cache {
	return NewWithCapacity(0)
}

// NewWithCapacity creates a cache holding at most maxBytes of transcoded output
func NewWithCapacity(maxBytes uint64) *Cache {
	return &Cache{
		entries:  make(map[Hash]*cacheEntry),
		lruList:  list.New(),
		maxBytes: maxBytes,
	}
}

// GetOrAdd returns the cached output for hash, or calls compute and stores its result.
// Returns (output, hit, error). Failed computations are not cached.
// The returned slice is shared and must not be modified.
func (c *Cache) GetOrAdd(hash Hash, compute func() ([]byte, error)) ([]byte, bool, error) {
	c.lookups.Add(1)

	if data, ok := c.lookup(hash); ok {
		c.hits.Add(1)
		return data, true, nil
	}

	// Computed outside the lock; concurrent misses for the same page may both compute
	data, err := compute()
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check in case another goroutine stored it meanwhile
	if entry, exists := c.entries[hash]; exists {
		entry.hits++
		c.lruList.MoveToFront(entry.lruNode)
		return entry.data, false, nil
	}

	size := uint64(len(data))
	if c.maxBytes > 0 && size > c.maxBytes {
		// Never fits
		return data, false, nil
	}
	for c.maxBytes > 0 && c.size+size > c.maxBytes {
		c.evictLRU()
	}

	entry := &cacheEntry{hash: hash, data: data}
	entry.lruNode = c.lruList.PushFront(entry)
	c.entries[hash] = entry
	c.size += size

	return data, false, nil
}

func (c *Cache) lookup(hash Hash) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[hash]
	if !exists {
		return nil, false
	}
	entry.hits++
	c.lruList.MoveToFront(entry.lruNode)
	return entry.data, true
}

// evictLRU removes the least recently used entry
// Must be called with the lock held
func (c *Cache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}

	entry := back.Value.(*cacheEntry)
	delete(c.entries, entry.hash)
	c.lruList.Remove(back)
	c.size -= uint64(len(entry.data))
	c.evictions.Add(1)
}

// Len returns the number of cached pages
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Size returns the total size of cached outputs in bytes
func (c *Cache) Size() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	return Stats{
		Lookups:   c.lookups.Load(),
		Hits:      c.hits.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Stats contains cache statistics
type Stats struct {
	Lookups   uint64 // Total GetOrAdd calls
	Hits      uint64 // Lookups served from the cache
	Evictions uint64 // Entries evicted due to capacity limit
}

// HitRatio returns the hit ratio as a percentage
func (s Stats) HitRatio() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups) * 100
}
