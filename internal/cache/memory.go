package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is an LRU string cache with per-entry TTL and size-based
// eviction.
type Memory struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List
}

type memoryItem struct {
	key       string
	value     string
	expiresAt time.Time
}

// NewMemory creates an in-process cache holding at most maxSize entries.
func NewMemory(maxSize int) *Memory {
	return &Memory{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *Memory) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		return "", false
	}

	item := elem.Value.(*memoryItem)
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return "", false
	}

	// Move to front (most recently used)
	c.lru.MoveToFront(elem)
	return item.value, true
}

func (c *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &memoryItem{key: key, value: value, expiresAt: time.Now().Add(ttl)}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *Memory) removeElement(elem *list.Element) {
	item := elem.Value.(*memoryItem)
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// Size returns the current number of entries, expired ones included.
func (c *Memory) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
