package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is an in-process cache with LRU eviction and TTL.
type MemoryCache struct {
	entries     map[string]*entry
	mutex       sync.Mutex
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	// LRU list with sentinel head and tail
	head *entry
	tail *entry

	hits      int64
	misses    int64
	evictions int64
}

type entry struct {
	key       string
	value     []byte
	createdAt time.Time
	size      int64
	prev      *entry
	next      *entry
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int
	Size      int64
	MaxSize   int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// NewMemoryCache creates a cache bounded to maxSize bytes. A zero maxSize
// or ttl disables the respective limit.
func NewMemoryCache(maxSize int64, ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*entry),
		maxSize: maxSize,
		ttl:     ttl,
		head:    &entry{},
		tail:    &entry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Add stores value under key, evicting least recently used entries when
// the size limit would be exceeded.
func (c *MemoryCache) Add(key string, value []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	size := int64(len(value))
	if existing, ok := c.entries[key]; ok {
		c.currentSize += size - existing.size
		existing.value = value
		existing.size = size
		existing.createdAt = time.Now()
		c.moveToFront(existing)
		c.evictIfNeeded(0)
		return nil
	}

	c.evictIfNeeded(size)

	e := &entry{key: key, value: value, createdAt: time.Now(), size: size}
	c.entries[key] = e
	c.currentSize += size
	c.addToFront(e)

	return nil
}

// Get returns the value stored under key.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.lookup(key)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	c.moveToFront(e)
	atomic.AddInt64(&c.hits, 1)

	return e.value, true
}

// Delete removes key.
func (c *MemoryCache) Delete(key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if e, ok := c.entries[key]; ok {
		c.remove(e)
	}

	return nil
}

// Exists reports whether a live entry is stored under key.
func (c *MemoryCache) Exists(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, ok := c.lookup(key)

	return ok
}

// Clear removes every entry and resets the counters.
func (c *MemoryCache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*entry)
	c.currentSize = 0
	c.head.next = c.tail
	c.tail.prev = c.head

	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.evictions, 0)

	return nil
}

// Stats returns the current counters.
func (c *MemoryCache) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return Stats{
		Entries:   len(c.entries),
		Size:      c.currentSize,
		MaxSize:   c.maxSize,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}

func (c *MemoryCache) lookup(key string) (*entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(e.createdAt) > c.ttl {
		c.remove(e)
		return nil, false
	}

	return e, true
}

func (c *MemoryCache) evictIfNeeded(newSize int64) {
	if c.maxSize <= 0 {
		return
	}
	for c.currentSize+newSize > c.maxSize && c.tail.prev != c.head {
		c.remove(c.tail.prev)
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *MemoryCache) remove(e *entry) {
	c.removeFromList(e)
	delete(c.entries, e.key)
	c.currentSize -= e.size
}

func (c *MemoryCache) addToFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *MemoryCache) removeFromList(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *MemoryCache) moveToFront(e *entry) {
	c.removeFromList(e)
	c.addToFront(e)
}
