package services

import (
	"container/list"
	"sync"
	"time"

	"travel-timeline-parser/internal/models"
)

// lruCache is a small LRU with per-entry TTL for parsed timelines. Keyed
// by the content hash from models.GenerateCacheKey.
type lruCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key      string
	data     []models.DayPlan
	warnings []string
	parser   string
	storedAt time.Time
}

func newLRUCache(maxSize int, ttl time.Duration) *lruCache {
	return &lruCache{
		maxSize: maxSize,
		ttl:     ttl,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Get returns the cached entry and refreshes its recency. Expired
// entries are evicted on access.
func (c *lruCache) Get(key string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	entry := element.Value.(*cacheEntry)
	if time.Since(entry.storedAt) > c.ttl {
		c.order.Remove(element)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(element)
	return entry, true
}

// Set stores an entry, evicting the least recently used one when full.
func (c *lruCache) Set(key string, data []models.DayPlan, warnings []string, parser string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, exists := c.entries[key]; exists {
		entry := element.Value.(*cacheEntry)
		entry.data = data
		entry.warnings = warnings
		entry.parser = parser
		entry.storedAt = time.Now()
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{
		key:      key,
		data:     data,
		warnings: warnings,
		parser:   parser,
		storedAt: time.Now(),
	})
}

// Cleanup drops all expired entries and reports how many were removed.
func (c *lruCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for element := c.order.Back(); element != nil; {
		prev := element.Prev()
		entry := element.Value.(*cacheEntry)
		if time.Since(entry.storedAt) > c.ttl {
			c.order.Remove(element)
			delete(c.entries, entry.key)
			removed++
		}
		element = prev
	}
	return removed
}

// Clear empties the cache.
func (c *lruCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// Len reports the number of cached entries, expired or not.
func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
