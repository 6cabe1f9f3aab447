package notifier

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) *Notifier {
	t.Helper()
	n, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, err)
	return n
}

func TestNotifier_BroadcastReachesAllSubscribers(t *testing.T) {
	n := newTestNotifier(t)

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		n.Subscribe(SubscriberFunc(func(context.Context) { calls.Add(1) }))
	}
	require.Equal(t, 5, n.Len())

	n.TriggerAllIconsRefreshAndIconEnablersReinit(context.Background())
	assert.Equal(t, int32(5), calls.Load())
}

func TestNotifier_WaitsForSubscribers(t *testing.T) {
	n := newTestNotifier(t)

	var done atomic.Bool
	n.Subscribe(SubscriberFunc(func(context.Context) {
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
	}))

	n.TriggerAllIconsRefreshAndIconEnablersReinit(context.Background())
	assert.True(t, done.Load())
}

func TestNotifier_CloseStopsDelivery(t *testing.T) {
	n := newTestNotifier(t)

	var kept, closed atomic.Int32
	n.Subscribe(SubscriberFunc(func(context.Context) { kept.Add(1) }))
	sub := n.Subscribe(SubscriberFunc(func(context.Context) { closed.Add(1) }))
	assert.NotEmpty(t, sub.ID())

	sub.Close()
	sub.Close()
	assert.Equal(t, 1, n.Len())

	n.TriggerAllIconsRefreshAndIconEnablersReinit(context.Background())
	assert.Equal(t, int32(1), kept.Load())
	assert.Equal(t, int32(0), closed.Load())
}

func TestNotifier_PanickingSubscriberIsIsolated(t *testing.T) {
	n := newTestNotifier(t)

	var calls atomic.Int32
	n.Subscribe(SubscriberFunc(func(context.Context) { panic("boom") }))
	n.Subscribe(SubscriberFunc(func(context.Context) { calls.Add(1) }))

	assert.NotPanics(t, func() {
		n.TriggerAllIconsRefreshAndIconEnablersReinit(context.Background())
	})
	assert.Equal(t, int32(1), calls.Load())
}

func TestNotifier_NoSubscribers(t *testing.T) {
	n := newTestNotifier(t)
	assert.NotPanics(t, func() {
		n.TriggerAllIconsRefreshAndIconEnablersReinit(context.Background())
	})
}

func TestNotifier_ConcurrentSubscribeAndBroadcast(t *testing.T) {
	n := newTestNotifier(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := n.Subscribe(SubscriberFunc(func(context.Context) {}))
			sub.Close()
		}()
		go func() {
			defer wg.Done()
			n.TriggerAllIconsRefreshAndIconEnablersReinit(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, n.Len())
}

func TestNotifier_SubscriberCanUnsubscribeDuringBroadcast(t *testing.T) {
	n := newTestNotifier(t)

	var sub *Subscription
	var calls atomic.Int32
	sub = n.Subscribe(SubscriberFunc(func(context.Context) {
		calls.Add(1)
		sub.Close()
	}))

	n.TriggerAllIconsRefreshAndIconEnablersReinit(context.Background())
	n.TriggerAllIconsRefreshAndIconEnablersReinit(context.Background())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, n.Len())
}
