package dstmpl

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds how many templates one cache keeps.
const DefaultCacheSize = 512

// Cache holds parsed templates keyed case-insensitively by name. It is safe
// for concurrent use and is meant to outlive individual decompile passes.
type Cache struct {
	entries *lru.Cache[string, *Template]
	// loads collapses concurrent misses on the same name into one load.
	loads singleflight.Group
}

// NewCache creates a cache holding at most size templates.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, _ := lru.New[string, *Template](size)
	return &Cache{entries: c}
}

func cacheKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Get returns the cached template for name.
func (c *Cache) Get(name string) (*Template, bool) {
	return c.entries.Get(cacheKey(name))
}

// Add stores t under name.
func (c *Cache) Add(name string, t *Template) {
	if t == nil {
		return
	}
	c.entries.Add(cacheKey(name), t)
}

// GetOrLoad returns the cached template or calls load and caches a non-nil
// result. Concurrent callers for the same name share one load; loads for
// different names run independently. Errors are not cached.
func (c *Cache) GetOrLoad(name string, load func() (*Template, error)) (*Template, error) {
	if t, ok := c.Get(name); ok {
		return t, nil
	}

	v, err, _ := c.loads.Do(cacheKey(name), func() (any, error) {
		if t, ok := c.Get(name); ok {
			return t, nil
		}
		t, err := load()
		if err != nil {
			return nil, err
		}
		c.Add(name, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Template), nil
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached template.
func (c *Cache) Purge() {
	c.entries.Purge()
}
