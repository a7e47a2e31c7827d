// Package lookup caches immutable per-key resources, such as parsed module
// files and GO universes, that many workers read during one run.
package lookup

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces the value for key. It is called at most once per key
// for as long as it keeps succeeding.
type LoadFunc[V any] func(ctx context.Context, key string) (V, error)

// Cache loads a value the first time its key is requested and shares it
// read-only afterwards. Concurrent first requests for one key share a single
// load. Failed loads are not cached.
type Cache[V any] struct {
	load  LoadFunc[V]
	group singleflight.Group

	mu     sync.RWMutex
	values map[string]V
}

// New returns an empty cache backed by load.
func New[V any](load LoadFunc[V]) *Cache[V] {
	return &Cache[V]{
		load:   load,
		values: make(map[string]V),
	}
}

// Get returns the cached value for key, loading it if needed.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, error) {
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	// The load ignores ctx's cancellation. A caller whose ctx ends stops
	// waiting; others sharing the load still get its result.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.mu.RLock()
		v, ok := c.values[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := c.load(loadCtx, key)
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()

		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Len is the number of successfully loaded keys.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
