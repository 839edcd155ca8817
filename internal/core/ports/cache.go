package ports

import (
	"context"
	"time"
)

// Cache is the process-wide key/value store used for cache-aside reads.
// A miss is reported as found=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}
