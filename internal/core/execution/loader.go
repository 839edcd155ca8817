package execution

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLoaderWait     = time.Millisecond
	DefaultLoaderMaxBatch = 100
)

// BatchFunc fetches many keys with a single call to the store. Keys missing
// from the returned map resolve to the zero value of V, not to an error.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// LoaderConfig tunes batch collection.
type LoaderConfig struct {
	// Wait is how long a batch stays open for more keys after the first one
	// is enqueued. Flush closes it early.
	Wait time.Duration
	// MaxBatch dispatches a batch as soon as it holds this many keys.
	MaxBatch int
	// OnBatch, when set, is told the size of every dispatched batch.
	OnBatch func(size int)
}

func (c LoaderConfig) withDefaults() LoaderConfig {
	if c.Wait <= 0 {
		c.Wait = DefaultLoaderWait
	}
	if c.MaxBatch <= 0 {
		c.MaxBatch = DefaultLoaderMaxBatch
	}
	return c
}

// Thunk waits for a value enqueued with LoadThunk.
type Thunk[V any] func(ctx context.Context) (V, error)

type pending[V any] struct {
	done  chan struct{}
	value V
	err   error
}

type batch[K comparable, V any] struct {
	keys    []K
	entries []*pending[V]
	timer   *time.Timer
}

// Loader coalesces by-key lookups issued during one request into batched
// fetches and memoizes every resolved key for the rest of the request.
// A Loader must never be shared between requests.
type Loader[K comparable, V any] struct {
	ctx   context.Context
	fetch BatchFunc[K, V]
	cfg   LoaderConfig

	mu      sync.Mutex
	entries map[K]*pending[V]
	current *batch[K, V]
}

// NewLoader returns a Loader whose fetches run under ctx, normally the
// request context.
func NewLoader[K comparable, V any](ctx context.Context, fetch BatchFunc[K, V], cfg LoaderConfig) *Loader[K, V] {
	return &Loader[K, V]{
		ctx:     ctx,
		fetch:   fetch,
		cfg:     cfg.withDefaults(),
		entries: make(map[K]*pending[V]),
	}
}

// Load returns the value for key, joining the open batch if there is one.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	return l.LoadThunk(key)(ctx)
}

// LoadAll enqueues every key, flushes, and waits for all of them. The result
// is aligned with keys; the first error wins.
func (l *Loader[K, V]) LoadAll(ctx context.Context, keys []K) ([]V, error) {
	thunks := make([]Thunk[V], len(keys))
	for i, k := range keys {
		thunks[i] = l.LoadThunk(k)
	}
	l.Flush()

	out := make([]V, len(keys))
	for i, th := range thunks {
		v, err := th(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// LoadThunk enqueues key without blocking. Repeated keys share one entry, so
// a key is fetched at most once per request unless its batch failed.
func (l *Loader[K, V]) LoadThunk(key K) Thunk[V] {
	l.mu.Lock()
	p, ok := l.entries[key]
	if !ok {
		p = &pending[V]{done: make(chan struct{})}
		l.entries[key] = p
		l.enqueueLocked(key, p)
	}
	l.mu.Unlock()

	return func(ctx context.Context) (V, error) {
		select {
		case <-p.done:
			return p.value, p.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
}

// Prime stores value for key unless the key is already known.
func (l *Loader[K, V]) Prime(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[key]; ok {
		return
	}
	p := &pending[V]{done: make(chan struct{}), value: value}
	close(p.done)
	l.entries[key] = p
}

// Flush dispatches the open batch immediately.
func (l *Loader[K, V]) Flush() {
	l.mu.Lock()
	b := l.current
	l.current = nil
	l.mu.Unlock()

	if b != nil {
		b.timer.Stop()
		go l.dispatch(b)
	}
}

func (l *Loader[K, V]) enqueueLocked(key K, p *pending[V]) {
	if l.current == nil {
		b := &batch[K, V]{}
		b.timer = time.AfterFunc(l.cfg.Wait, func() { l.closeBatch(b) })
		l.current = b
	}

	b := l.current
	b.keys = append(b.keys, key)
	b.entries = append(b.entries, p)

	if len(b.keys) >= l.cfg.MaxBatch {
		l.current = nil
		b.timer.Stop()
		go l.dispatch(b)
	}
}

// closeBatch fires when the collection window of b elapses.
func (l *Loader[K, V]) closeBatch(b *batch[K, V]) {
	l.mu.Lock()
	if l.current != b {
		l.mu.Unlock()
		return
	}
	l.current = nil
	l.mu.Unlock()

	l.dispatch(b)
}

func (l *Loader[K, V]) dispatch(b *batch[K, V]) {
	if l.cfg.OnBatch != nil {
		l.cfg.OnBatch(len(b.keys))
	}

	values, err := l.fetch(l.ctx, b.keys)
	if err != nil {
		// A failed batch is not memoized; the next Load retries.
		l.mu.Lock()
		for i, k := range b.keys {
			if l.entries[k] == b.entries[i] {
				delete(l.entries, k)
			}
		}
		l.mu.Unlock()
	}

	for i, p := range b.entries {
		if err != nil {
			p.err = err
		} else {
			p.value = values[b.keys[i]]
		}
		close(p.done)
	}
}
