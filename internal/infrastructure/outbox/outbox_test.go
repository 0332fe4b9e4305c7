package outbox_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

type pinged struct{ n int }

func (pinged) EventName() string { return "test.pinged" }

type ponged struct{}

func (ponged) EventName() string { return "test.ponged" }

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := outbox.NewBus(observability.Nop(), outbox.WithConcurrency(2))
	var (
		mu   sync.Mutex
		seen []string
	)
	record := func(tag string) domoutbox.Handler {
		return func(_ context.Context, e domoutbox.Event) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, tag)
			return nil
		}
	}
	bus.Subscribe("test.pinged", record("a"))
	bus.Subscribe("test.pinged", record("b"))
	bus.Subscribe("test.ponged", record("c"))

	ctx := context.Background()
	bus.Start(ctx)
	require.NoError(t, bus.Publish(ctx, pinged{n: 1}))
	require.NoError(t, bus.Publish(ctx, nil))
	require.NoError(t, bus.Stop(ctx))

	assert.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := outbox.NewBus(observability.Nop())
	var got []int
	bus.Subscribe("test.pinged", func(_ context.Context, e domoutbox.Event) error {
		got = append(got, e.(pinged).n)
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	for i := 1; i <= 5; i++ {
		require.NoError(t, bus.Publish(ctx, pinged{n: i}))
	}
	require.NoError(t, bus.Stop(ctx))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestBusSurvivesFailingHandlers(t *testing.T) {
	bus := outbox.NewBus(observability.Nop())
	var ok atomic.Int32
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { panic("handler bug") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		ok.Add(1)
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	require.NoError(t, bus.Publish(ctx, pinged{}))
	require.NoError(t, bus.Publish(ctx, pinged{}))
	require.NoError(t, bus.Stop(ctx))
	assert.Equal(t, int32(2), ok.Load())
}

func TestBusRejectsAfterStop(t *testing.T) {
	bus := outbox.NewBus(observability.Nop())
	ctx := context.Background()
	bus.Start(ctx)
	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Stop(ctx))

	assert.ErrorIs(t, bus.Publish(ctx, ponged{}), outbox.ErrClosed)
}

func TestBusStopWithoutStart(t *testing.T) {
	bus := outbox.NewBus(nil)
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestBusStopGivesUpWhenContextEnds(t *testing.T) {
	bus := outbox.NewBus(observability.Nop())
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		close(started)
		<-release
		return nil
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), pinged{}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)
}

func TestPublishHonoursContextWhenQueueIsFull(t *testing.T) {
	bus := outbox.NewBus(observability.Nop(), outbox.WithQueueSize(1))
	// Not started, so the single slot stays occupied.
	require.NoError(t, bus.Publish(context.Background(), pinged{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(ctx, pinged{}), context.DeadlineExceeded)
}

func TestStopDrainsWhilePublisherWaitsOnFullQueue(t *testing.T) {
	bus := outbox.NewBus(observability.Nop(), outbox.WithQueueSize(1))
	release := make(chan struct{})
	started := make(chan struct{})
	var (
		once      sync.Once
		delivered atomic.Int32
	)
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		once.Do(func() { close(started) })
		<-release
		delivered.Add(1)
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	require.NoError(t, bus.Publish(ctx, pinged{n: 1}))
	<-started
	require.NoError(t, bus.Publish(ctx, pinged{n: 2}))

	blocked := make(chan error, 1)
	go func() { blocked <- bus.Publish(ctx, pinged{n: 3}) }()
	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	stopped := make(chan error, 1)
	go func() { stopped <- bus.Stop(stopCtx) }()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-stopped)
	select {
	case err := <-blocked:
		if err != nil {
			assert.ErrorIs(t, err, outbox.ErrClosed)
			assert.Equal(t, int32(2), delivered.Load())
		} else {
			assert.Equal(t, int32(3), delivered.Load())
		}
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after stop")
	}
}
