package pathing

import "github.com/talgya/tilecity/internal/world"

// Cache holds the remaining steps of each resident's in-progress move, keyed
// by resident id.
type Cache[K comparable] struct {
	paths map[K][]world.Location
}

// NewCache creates an empty path cache.
func NewCache[K comparable]() *Cache[K] {
	return &Cache[K]{paths: make(map[K][]world.Location)}
}

// Get returns the remaining path for key.
func (c *Cache[K]) Get(key K) ([]world.Location, bool) {
	p, ok := c.paths[key]
	return p, ok
}

// Put stores a freshly computed path. Empty paths are not stored.
func (c *Cache[K]) Put(key K, path []world.Location) {
	if len(path) == 0 {
		delete(c.paths, key)
		return
	}
	c.paths[key] = path
}

// Peek returns the next step without consuming it.
func (c *Cache[K]) Peek(key K) (world.Location, bool) {
	p := c.paths[key]
	if len(p) == 0 {
		return world.Location{}, false
	}
	return p[0], true
}

// Pop consumes the next step. The entry is dropped once its last step is
// taken; done reports that.
func (c *Cache[K]) Pop(key K) (step world.Location, done, ok bool) {
	p := c.paths[key]
	if len(p) == 0 {
		return world.Location{}, false, false
	}
	step = p[0]
	if len(p) == 1 {
		delete(c.paths, key)
		return step, true, true
	}
	c.paths[key] = p[1:]
	return step, false, true
}

// Drop aborts the move for key.
func (c *Cache[K]) Drop(key K) {
	delete(c.paths, key)
}

// Reset drops every entry.
func (c *Cache[K]) Reset() {
	clear(c.paths)
}

// Len returns the number of in-progress moves.
func (c *Cache[K]) Len() int {
	return len(c.paths)
}
