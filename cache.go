package hive

import "fmt"

// Cache is a fixed-capacity name-to-index registry. World uses one to
// back its workload registry: names must be unique, and the index a name
// was registered under never changes, so a Workload can be looked up by
// either its name or a cached integer handle.
type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
}

// SimpleCache is the one Cache implementation World uses.
type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}

var _ Cache[any] = &SimpleCache[any]{}

// NewCache creates a SimpleCache holding at most maxCapacity items.
func NewCache[T any](maxCapacity int) *SimpleCache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int, maxCapacity),
		maxCapacity: maxCapacity,
	}
}

// GetIndex returns the 1-based index key was registered under.
func (c *SimpleCache[T]) GetIndex(key string) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

// GetItem returns the item at a 1-based index previously returned by
// Register or GetIndex.
func (c *SimpleCache[T]) GetItem(index int) *T {
	return &c.items[index-1]
}

// GetItem32 is GetItem for callers holding a uint32 index.
func (c *SimpleCache[T]) GetItem32(index uint32) *T {
	return &c.items[index-1]
}

// Register adds item under key, returning its 1-based index. Registering
// an already-used key replaces the stored item but keeps its original
// index.
func (c *SimpleCache[T]) Register(key string, item T) (int, error) {
	if idx, ok := c.itemIndices[key]; ok {
		c.items[idx-1] = item
		return idx, nil
	}
	if len(c.itemIndices) >= c.maxCapacity {
		return -1, fmt.Errorf("cache at maximum capacity (%d)", c.maxCapacity)
	}

	c.items = append(c.items, item)
	idx := len(c.items)
	c.itemIndices[key] = idx
	return idx, nil
}

// Clear empties the cache.
func (c *SimpleCache[T]) Clear() {
	c.items = c.items[:0]
	c.itemIndices = make(map[string]int, c.maxCapacity)
}
