package lru

import (
	"container/list"
	"sync"
)

type listEntry[K comparable, V any] struct {
	key   K
	value V
}

// Cache is a thread-safe, fixed-capacity cache. The least recently
// used entry is evicted when a new key is added to a full cache.
type Cache[K comparable, V any] struct {
	capacity int
	mu       sync.Mutex
	order    *list.List
	index    map[K]*list.Element
}

// NewCache returns a cache holding at most capacity entries. A capacity
// below one disables caching.
func NewCache[K comparable, V any](capacity int) *Cache[K, V] {
	return &Cache[K, V]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[K]*list.Element),
	}
}

func (c *Cache[K, V]) evictUnsafe() {
	element := c.order.Back()
	if element != nil {
		c.order.Remove(element)
		delete(c.index, element.Value.(*listEntry[K, V]).key)
	}
}

// Add stores value under key, replacing any previous value.
func (c *Cache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity < 1 {
		return
	}

	if element, ok := c.index[key]; ok {
		element.Value.(*listEntry[K, V]).value = value
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictUnsafe()
	}

	c.index[key] = c.order.PushFront(&listEntry[K, V]{key: key, value: value})
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(element)
	return element.Value.(*listEntry[K, V]).value, true
}

// GetOrAdd returns the cached value for key, computing and storing it
// with generate on a miss. Errors are returned uncached.
func (c *Cache[K, V]) GetOrAdd(key K, generate func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := generate()
	if err != nil {
		return value, err
	}
	c.Add(key, value)
	return value, nil
}

func (c *Cache[K, V]) Delete(key K) (present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.index[key]
	if !ok {
		return false
	}
	c.order.Remove(element)
	delete(c.index, key)
	return true
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Keys lists keys from least to most recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for element := c.order.Back(); element != nil; element = element.Prev() {
		keys = append(keys, element.Value.(*listEntry[K, V]).key)
	}
	return keys
}

func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	clear(c.index)
}
