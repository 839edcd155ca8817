// Package memory holds the single-process backends: a ristretto cache and an
// in-process event bus.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultCacheMaxCost bounds the cache at 64 MiB of encoded values.
const DefaultCacheMaxCost = 64 << 20

// Cache implements ports.Cache on top of ristretto. Entry cost is the encoded
// value length.
type Cache struct {
	store *ristretto.Cache[string, []byte]
}

func NewCache(maxCost int64) (*Cache, error) {
	if maxCost <= 0 {
		maxCost = DefaultCacheMaxCost
	}
	store, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        1e6,
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	return &Cache{store: store}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store.Get(key)
	return v, ok, nil
}

// Set waits for the write to be applied so a read in the same request sees it.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.store.SetWithTTL(key, value, int64(len(value)), ttl)
	c.store.Wait()
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.store.Del(k)
	}
	c.store.Wait()
	return nil
}

func (c *Cache) Ping(context.Context) error { return nil }

func (c *Cache) Close() { c.store.Close() }
