// Package metrics defines the custom Prometheus metrics of the forum API.
// HTTP request metrics come from echoprometheus; everything here describes
// the execution layer: operations, cache, batch loader and event bus.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

const namespace = "forum"

// ── Operations ────────────────────────────────────────────────────────────────

// OperationsTotal counts executed operations.
// Labels:
//   - operation: public operation name (e.g. "createPost")
//   - outcome: "ok" or the error class (see Outcome)
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of operations executed, by outcome.",
	},
	[]string{"operation", "outcome"},
)

// OperationDuration measures operation latency including gate checks.
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of operation execution.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Cache ─────────────────────────────────────────────────────────────────────

// CacheRequestsTotal counts cache calls.
// Labels:
//   - op: "get", "set" or "delete"
//   - result: "hit", "miss", "ok" or "error"
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Total number of cache-aside store calls, by op and result.",
	},
	[]string{"op", "result"},
)

// ── Batch loader ──────────────────────────────────────────────────────────────

// LoaderBatchSize records how many unique keys each dispatched batch carried.
var LoaderBatchSize = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "loader_batch_size",
		Help:      "Number of unique keys per batched user fetch.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
	},
)

// ── Event bus ─────────────────────────────────────────────────────────────────

// EventsPublishedTotal counts publish attempts.
// Labels:
//   - topic: POST_CREATED or COMMENT_ADDED
//   - result: "ok" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of events published, by topic and result.",
	},
	[]string{"topic", "result"},
)

// EventDeliveriesTotal counts events queued to subscribers.
var EventDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_deliveries_total",
		Help:      "Total number of event deliveries to subscriber queues.",
	},
	[]string{"topic"},
)

// SlowConsumersTotal counts subscriptions dropped for overflowing their queue.
var SlowConsumersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slow_consumers_total",
		Help:      "Total number of subscriptions terminated because their queue was full.",
	},
	[]string{"topic"},
)

// ActiveSubscriptions tracks open streaming connections.
var ActiveSubscriptions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_subscriptions",
		Help:      "Current number of open subscription streams.",
	},
)

// Outcome classifies err for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return "unauthenticated"
	case errors.Is(err, domain.ErrAuthorizationDenied):
		return "denied"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrDependency):
		return "dependency"
	default:
		return "internal"
	}
}

// ObserveOperation records one finished operation.
func ObserveOperation(name string, start time.Time, err error) {
	OperationsTotal.WithLabelValues(name, Outcome(err)).Inc()
	OperationDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// ObserveBatch is a loader batch hook.
func ObserveBatch(size int) {
	LoaderBatchSize.Observe(float64(size))
}

// BusObserver feeds in-process bus callbacks into the bus metrics.
type BusObserver struct{}

func (BusObserver) Delivered(topic domain.Topic, n int) {
	EventDeliveriesTotal.WithLabelValues(string(topic)).Add(float64(n))
}

func (BusObserver) SlowConsumer(topic domain.Topic) {
	SlowConsumersTotal.WithLabelValues(string(topic)).Inc()
}

type instrumentedCache struct {
	ports.Cache
}

// InstrumentCache wraps c so every call is counted.
func InstrumentCache(c ports.Cache) ports.Cache {
	return instrumentedCache{Cache: c}
}

func (c instrumentedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, found, err := c.Cache.Get(ctx, key)
	switch {
	case err != nil:
		CacheRequestsTotal.WithLabelValues("get", "error").Inc()
	case found:
		CacheRequestsTotal.WithLabelValues("get", "hit").Inc()
	default:
		CacheRequestsTotal.WithLabelValues("get", "miss").Inc()
	}
	return v, found, err
}

func (c instrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, value, ttl)
	CacheRequestsTotal.WithLabelValues("set", result(err)).Inc()
	return err
}

func (c instrumentedCache) Delete(ctx context.Context, keys ...string) error {
	err := c.Cache.Delete(ctx, keys...)
	CacheRequestsTotal.WithLabelValues("delete", result(err)).Inc()
	return err
}

type instrumentedBus struct {
	ports.EventBus
}

// InstrumentBus wraps b so every publish is counted.
func InstrumentBus(b ports.EventBus) ports.EventBus {
	return instrumentedBus{EventBus: b}
}

func (b instrumentedBus) Publish(ctx context.Context, event domain.Event) error {
	err := b.EventBus.Publish(ctx, event)
	EventsPublishedTotal.WithLabelValues(string(event.Topic), result(err)).Inc()
	return err
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
