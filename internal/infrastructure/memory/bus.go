package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 1024

var ErrBusClosed = errors.New("event bus closed")

// errClosed is what callers see once the bus is closed: a dependency failure
// that still matches ErrBusClosed.
func errClosed() error {
	return &domain.DependencyError{Component: "event_bus", Err: ErrBusClosed}
}

// BusObserver is told about deliveries and dropped subscribers.
type BusObserver interface {
	Delivered(topic domain.Topic, n int)
	SlowConsumer(topic domain.Topic)
}

// Bus is an in-process fan-out bus. Every subscription owns a bounded FIFO
// queue; a subscription whose queue is full when an event arrives is
// terminated with domain.ErrSlowConsumer, so Publish never blocks.
type Bus struct {
	mu       sync.Mutex
	subs     map[string]*subscription
	buffer   int
	closed   bool
	observer BusObserver
	log      zerolog.Logger
}

type BusOption func(*Bus)

// WithObserver attaches o to the bus.
func WithObserver(o BusObserver) BusOption {
	return func(b *Bus) { b.observer = o }
}

func NewBus(buffer int, log zerolog.Logger, opts ...BusOption) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	b := &Bus{subs: make(map[string]*subscription), buffer: buffer, log: log}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Publish(_ context.Context, event domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errClosed()
	}

	delivered := 0
	for _, s := range b.subs {
		if _, ok := s.topics[event.Topic]; !ok {
			continue
		}
		select {
		case s.ch <- event:
			delivered++
		default:
			b.log.Warn().Str("subscription_id", s.id).Str("topic", string(event.Topic)).Msg("subscriber queue full, dropping subscription")
			b.terminateLocked(s, domain.ErrSlowConsumer)
			if b.observer != nil {
				b.observer.SlowConsumer(event.Topic)
			}
		}
	}

	if b.observer != nil {
		b.observer.Delivered(event.Topic, delivered)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, topics ...domain.Topic) (ports.Subscription, error) {
	if len(topics) == 0 {
		return nil, errors.New("subscribe: no topics")
	}

	s := &subscription{
		id:     uuid.NewString(),
		topics: make(map[domain.Topic]struct{}, len(topics)),
		ch:     make(chan domain.Event, b.buffer),
		done:   make(chan struct{}),
		bus:    b,
	}
	for _, t := range topics {
		s.topics[t] = struct{}{}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, errClosed()
	}
	b.subs[s.id] = s
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

func (b *Bus) Ping(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errClosed()
	}
	return nil
}

// Close terminates every subscription; queued events stay readable.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		b.terminateLocked(s, nil)
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) terminateLocked(s *subscription, err error) {
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	delete(b.subs, s.id)
	close(s.ch)
	close(s.done)
}

type subscription struct {
	id     string
	topics map[domain.Topic]struct{}
	ch     chan domain.Event
	done   chan struct{}
	bus    *Bus

	// guarded by bus.mu
	closed bool
	err    error
}

func (s *subscription) ID() string { return s.id }

func (s *subscription) Events() <-chan domain.Event { return s.ch }

func (s *subscription) Err() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.err
}

func (s *subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	s.bus.terminateLocked(s, nil)
}
