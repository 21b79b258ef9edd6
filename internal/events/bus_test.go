// internal/events/bus_test.go
package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/events"
	"github.com/jaiswal09/medstock-be/test/helpers"
)

func newStartedBus(t *testing.T, buffer int) *events.Bus {
	t.Helper()
	bus := events.NewBus(buffer, helpers.TestLogger())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		_ = bus.Stop(context.Background())
	})
	return bus
}

func TestBus_PublishDeliversToAllSubscribers(t *testing.T) {
	bus := newStartedBus(t, 8)

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	item := helpers.CreateTestItem()
	bus.Publish(domain.NewInventoryCreated(item))

	for _, ch := range []<-chan domain.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, domain.EventType("inventory_created"), ev.Type())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBus_StartTwiceFails(t *testing.T) {
	bus := newStartedBus(t, 8)
	assert.Error(t, bus.Start(context.Background()))
}

func TestBus_PublishBeforeStartIsDropped(t *testing.T) {
	bus := events.NewBus(8, helpers.TestLogger())
	// Must not panic or block.
	bus.Publish(domain.NewInventoryCreated(helpers.CreateTestItem()))
	assert.Equal(t, int64(0), bus.Dropped())
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := newStartedBus(t, 2)

	ch, cancel := bus.Subscribe()
	defer cancel()

	item := helpers.CreateTestItem()
	for i := 0; i < 5; i++ {
		bus.Publish(domain.NewInventoryUpdated(item))
	}

	// Buffer of 2: three publishes had nowhere to go.
	assert.Equal(t, int64(3), bus.Dropped())
	assert.Len(t, ch, 2)
}

func TestBus_StopClosesSubscriberChannels(t *testing.T) {
	bus := newStartedBus(t, 8)

	ch, cancel := bus.Subscribe()
	defer cancel()

	require.NoError(t, bus.Stop(context.Background()))

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel was not closed on stop")
	}

	// Stop is idempotent and publish after stop is a silent no-op.
	require.NoError(t, bus.Stop(context.Background()))
	bus.Publish(domain.NewInventoryCreated(helpers.CreateTestItem()))
}

func TestBus_SubscribeAfterStopReturnsClosedChannel(t *testing.T) {
	bus := newStartedBus(t, 8)
	require.NoError(t, bus.Stop(context.Background()))

	ch, cancel := bus.Subscribe()
	defer cancel()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBus_CancelUnsubscribes(t *testing.T) {
	bus := newStartedBus(t, 8)

	ch, cancel := bus.Subscribe()
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	// Publishing after cancel must not panic on the closed channel.
	bus.Publish(domain.NewInventoryCreated(helpers.CreateTestItem()))

	// Calling cancel again is safe.
	cancel()
}
