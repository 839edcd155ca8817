package execution

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

// DefaultCacheTTL is how long a whole-entity read stays cached.
const DefaultCacheTTL = time.Hour

// CacheAside applies the read-through/invalidate-on-write policy on top of a
// ports.Cache. It never caches a miss.
type CacheAside struct {
	cache ports.Cache
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger
}

func NewCacheAside(cache ports.Cache, ttl time.Duration, log zerolog.Logger) *CacheAside {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheAside{cache: cache, ttl: ttl, log: log}
}

// TTL returns the expiry applied to populated entries.
func (c *CacheAside) TTL() time.Duration { return c.ttl }

// Invalidate deletes keys. Failures are returned as *domain.DependencyError
// since the caller's write already happened and the entry may now be stale.
func (c *CacheAside) Invalidate(ctx context.Context, keys ...string) error {
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.log.Error().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
		return &domain.DependencyError{Component: "cache", Err: err}
	}
	return nil
}

// Ping checks the backing cache.
func (c *CacheAside) Ping(ctx context.Context) error {
	return c.cache.Ping(ctx)
}

// ReadThrough returns the cached value under key or calls load and caches its
// result. A nil result or an error from load is never cached. Cache read
// failures fall back to load. Concurrent misses on the same key share one load.
func ReadThrough[T any](ctx context.Context, c *CacheAside, key string, load func(ctx context.Context) (*T, error)) (*T, error) {
	raw, found, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, reading from store")
	case found:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return &v, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}

	// The shared load is detached from any one caller so that a cancelled
	// request only abandons its own wait.
	ch := c.group.DoChan(key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		v, err := load(lctx)
		if err != nil || v == nil {
			return v, err
		}
		if raw, err := json.Marshal(v); err == nil {
			if err := c.cache.Set(lctx, key, raw, c.ttl); err != nil {
				c.log.Warn().Err(err).Str("key", key).Msg("cache populate failed")
			}
		}
		return v, nil
	})

	var shared any
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared = res.Val
	}

	v, _ := shared.(*T)
	if v == nil {
		return nil, nil
	}
	// Callers that joined the same flight must not share one pointer.
	out := *v
	return &out, nil
}
