package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

const channelPrefix = "forum:events:"

// Channel returns the PUB/SUB channel carrying topic.
func Channel(topic domain.Topic) string { return channelPrefix + string(topic) }

// Bus implements ports.EventBus over Redis PUB/SUB so that several processes
// share one event stream. Delivery is at-most-once per connected subscriber.
type Bus struct {
	client *redis.Client
	buffer int
	log    zerolog.Logger
}

func NewBus(client *redis.Client, buffer int, log zerolog.Logger) *Bus {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Bus{client: client, buffer: buffer, log: log}
}

func (b *Bus) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, Channel(event.Topic), payload).Err(); err != nil {
		return &domain.DependencyError{Component: "event_bus", Err: err}
	}
	return nil
}

// Subscribe blocks until Redis confirms the subscription so that events
// published after it returns are not missed.
func (b *Bus) Subscribe(ctx context.Context, topics ...domain.Topic) (ports.Subscription, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("subscribe: no topics")
	}
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = Channel(t)
	}

	ps := b.client.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, &domain.DependencyError{Component: "event_bus", Err: err}
	}

	s := &subscription{
		id:   uuid.NewString(),
		ps:   ps,
		ch:   make(chan domain.Event, b.buffer),
		stop: make(chan struct{}),
	}
	go s.run(ctx, b.log)
	return s, nil
}

func (b *Bus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

type subscription struct {
	id   string
	ps   *redis.PubSub
	ch   chan domain.Event
	stop chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

func (s *subscription) run(ctx context.Context, log zerolog.Logger) {
	defer close(s.ch)
	defer s.ps.Close()

	msgs := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping undecodable event")
				continue
			}
			select {
			case s.ch <- ev:
			default:
				s.fail(domain.ErrSlowConsumer)
				log.Warn().Str("subscription_id", s.id).Msg("subscriber queue full, dropping subscription")
				return
			}
		}
	}
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *subscription) ID() string { return s.id }

func (s *subscription) Events() <-chan domain.Event { return s.ch }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() {
	s.once.Do(func() { close(s.stop) })
}
