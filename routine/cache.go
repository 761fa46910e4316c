package routine

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache compiles each distinct routine once. Keys are model hashes.
type Cache struct {
	mu       sync.Mutex
	routines map[string]*Routine
	group    singleflight.Group
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{routines: make(map[string]*Routine)}
}

// Get returns the routine cached under key, compiling src on a miss.
// Concurrent misses on the same key compile once.
func (c *Cache) Get(key, name string, src func() string) (*Routine, error) {
	c.mu.Lock()
	r, ok := c.routines[key]
	c.mu.Unlock()

	if ok {
		return r, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		r, err := Compile(name, src())
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.routines[key] = r
		c.mu.Unlock()

		return r, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Routine), nil
}

// Len returns the number of compiled routines.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.routines)
}
