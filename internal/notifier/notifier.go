package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"

	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
)

const MeterName = "extra-icons/notifier"

// Subscriber reacts to icon refresh requests.
type Subscriber interface {
	OnRefreshRequested(ctx context.Context)
}

// SubscriberFunc adapts a function to a Subscriber.
type SubscriberFunc func(ctx context.Context)

func (f SubscriberFunc) OnRefreshRequested(ctx context.Context) {
	f(ctx)
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id       string
	notifier *Notifier
	once     sync.Once
}

// ID returns the unique id of the subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Close unregisters the subscriber. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.notifier.unsubscribe(s.id)
	})
}

// Notifier is the process-wide refresh topic.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	// order keeps delivery deterministic for logging and tests
	order []string

	logger  *slog.Logger
	metrics *metrics
}

type metrics struct {
	broadcasts     metric.Int64Counter
	deliveries     metric.Int64Counter
	panics         metric.Int64Counter
	duration       metric.Float64Histogram
	subscriberSize metric.Int64UpDownCounter
}

// New creates a notifier. A nil meter disables metrics.
func New(logger *slog.Logger, meter metric.Meter) (*Notifier, error) {
	m, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &Notifier{
		subscribers: make(map[string]Subscriber),
		logger:      infrastructure.WithComponent(logger, "notifier"),
		metrics:     m,
	}, nil
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	m := &metrics{}
	var err error

	m.broadcasts, err = meter.Int64Counter(
		"icons_refresh_broadcasts_total",
		metric.WithDescription("Total number of icon refresh broadcasts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create broadcasts counter: %w", err)
	}

	m.deliveries, err = meter.Int64Counter(
		"icons_refresh_deliveries_total",
		metric.WithDescription("Total number of refresh deliveries to subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create deliveries counter: %w", err)
	}

	m.panics, err = meter.Int64Counter(
		"icons_refresh_subscriber_panics_total",
		metric.WithDescription("Total number of subscribers that panicked during a refresh"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create panics counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		"icons_refresh_broadcast_duration_seconds",
		metric.WithDescription("Time to deliver a refresh to every subscriber"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create broadcast duration histogram: %w", err)
	}

	m.subscriberSize, err = meter.Int64UpDownCounter(
		"icons_refresh_subscribers",
		metric.WithDescription("Number of live refresh subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscribers gauge: %w", err)
	}

	return m, nil
}

// Subscribe registers s until the returned subscription is closed.
func (n *Notifier) Subscribe(s Subscriber) *Subscription {
	sub := &Subscription{id: uuid.New().String(), notifier: n}

	n.mu.Lock()
	n.subscribers[sub.id] = s
	n.order = append(n.order, sub.id)
	n.mu.Unlock()

	n.metrics.subscriberSize.Add(context.Background(), 1)
	n.logger.Debug("Refresh subscriber registered", slog.String("subscription_id", sub.id))
	return sub
}

func (n *Notifier) unsubscribe(id string) {
	n.mu.Lock()
	_, ok := n.subscribers[id]
	if ok {
		delete(n.subscribers, id)
		for i, sid := range n.order {
			if sid == id {
				n.order = append(n.order[:i], n.order[i+1:]...)
				break
			}
		}
	}
	n.mu.Unlock()

	if ok {
		n.metrics.subscriberSize.Add(context.Background(), -1)
		n.logger.Debug("Refresh subscriber removed", slog.String("subscription_id", id))
	}
}

// Len returns the number of live subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}

// TriggerAllIconsRefreshAndIconEnablersReinit asks every live subscriber to
// refresh its icons and waits until all of them return. A subscriber that
// panics is logged and does not affect the others.
func (n *Notifier) TriggerAllIconsRefreshAndIconEnablersReinit(ctx context.Context) {
	start := time.Now()

	n.mu.RLock()
	targets := make([]Subscriber, 0, len(n.order))
	for _, id := range n.order {
		targets = append(targets, n.subscribers[id])
	}
	n.mu.RUnlock()

	n.logger.InfoContext(ctx, "Triggering icons refresh",
		slog.Int("subscribers", len(targets)))

	var g errgroup.Group
	for _, s := range targets {
		g.Go(func() error {
			n.deliver(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	n.metrics.broadcasts.Add(ctx, 1)
	n.metrics.deliveries.Add(ctx, int64(len(targets)))
	n.metrics.duration.Record(ctx, time.Since(start).Seconds())
}

func (n *Notifier) deliver(ctx context.Context, s Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			n.metrics.panics.Add(ctx, 1)
			n.logger.ErrorContext(ctx, "Refresh subscriber panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	s.OnRefreshRequested(ctx)
}
