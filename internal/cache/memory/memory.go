// Package memory is a process-local cache.Cache built on otter.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter"
)

// Cache keeps entries in a bounded otter cache.
type Cache struct {
	c otter.Cache[string, []byte]
}

// New creates a cache holding at most capacity entries for ttl each.
func New(capacity int, ttl time.Duration) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	c, err := otter.MustBuilder[string, []byte](capacity).
		CollectStats().
		Cost(func(key string, value []byte) uint32 {
			return 1
		}).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.c.Get(key)
	return v, ok, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	c.c.Set(key, value)
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.c.Delete(k)
	}
	return nil
}

// Ratio is the hit ratio since creation.
func (c *Cache) Ratio() float64 {
	return c.c.Stats().Ratio()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() error {
	c.c.Close()
	return nil
}
