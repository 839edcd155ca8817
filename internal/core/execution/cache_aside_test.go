package execution

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
)

func TestReadThrough_PopulatesThenHits(t *testing.T) {
	cache := newStubCache()
	ca := NewCacheAside(cache, 0, zerolog.Nop())
	assert.Equal(t, DefaultCacheTTL, ca.TTL())

	loads := 0
	load := func(context.Context) (*domain.Post, error) {
		loads++
		return &domain.Post{ID: "p1", Title: "hello"}, nil
	}

	p, err := ReadThrough(context.Background(), ca, "post:p1", load)
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Title)
	assert.True(t, cache.has("post:p1"))

	p, err = ReadThrough(context.Background(), ca, "post:p1", load)
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Title)
	assert.Equal(t, 1, loads)
}

func TestReadThrough_DoesNotCacheMisses(t *testing.T) {
	cache := newStubCache()
	ca := NewCacheAside(cache, 0, zerolog.Nop())

	_, err := ReadThrough(context.Background(), ca, "post:nope", func(context.Context) (*domain.Post, error) {
		return nil, domain.NotFound(domain.KindPost)
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := ReadThrough(context.Background(), ca, "post:nil", func(context.Context) (*domain.Post, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, 0, cache.sets)
}

func TestReadThrough_CacheReadFailureFallsBackToStore(t *testing.T) {
	cache := newStubCache()
	cache.getErr = errors.New("connection refused")
	ca := NewCacheAside(cache, 0, zerolog.Nop())

	p, err := ReadThrough(context.Background(), ca, "post:p1", func(context.Context) (*domain.Post, error) {
		return &domain.Post{ID: "p1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}

func TestReadThrough_CancelledCallerDoesNotFailOthers(t *testing.T) {
	cache := newStubCache()
	ca := NewCacheAside(cache, 0, zerolog.Nop())

	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value
	load := func(ctx context.Context) (*domain.Post, error) {
		select {
		case <-started:
		default:
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			loadErr.Store(err)
			return nil, err
		}
		return &domain.Post{ID: "p1", Title: "hot"}, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := ReadThrough(ctxA, ca, "post:p1", load)
		errA <- err
	}()
	<-started

	type result struct {
		post *domain.Post
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		p, err := ReadThrough(context.Background(), ca, "post:p1", load)
		resB <- result{p, err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	require.NotNil(t, b.post)
	assert.Equal(t, "hot", b.post.Title)
	assert.Nil(t, loadErr.Load())
	assert.True(t, cache.has("post:p1"))
}

func TestInvalidate_FailureIsDependencyError(t *testing.T) {
	cache := newStubCache()
	ca := NewCacheAside(cache, 0, zerolog.Nop())
	require.NoError(t, cache.Set(context.Background(), "post:p1", []byte(`{}`), 0))

	require.NoError(t, ca.Invalidate(context.Background(), "post:p1", "posts:latest"))
	assert.False(t, cache.has("post:p1"))

	cache.delErr = errors.New("timeout")
	err := ca.Invalidate(context.Background(), "post:p1")
	assert.ErrorIs(t, err, domain.ErrDependency)

	var depErr *domain.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "cache", depErr.Component)
}
