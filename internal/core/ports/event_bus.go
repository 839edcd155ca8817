package ports

import (
	"context"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
)

// EventBus fans change events out to every subscription active on the topic
// at publish time. There is no replay.
type EventBus interface {
	Publish(ctx context.Context, event domain.Event) error
	// Subscribe registers interest in topics. The subscription ends when ctx
	// is cancelled or Close is called.
	Subscribe(ctx context.Context, topics ...domain.Topic) (Subscription, error)
	Ping(ctx context.Context) error
}

// Subscription is an infinite, ordered stream of events. Once the channel is
// closed the subscription is over; Err tells why, nil meaning a normal close.
type Subscription interface {
	ID() string
	Events() <-chan domain.Event
	Err() error
	Close()
}
