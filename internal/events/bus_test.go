package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToTypedSubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, unsub := Subscribe[SyncCompleted](bus, 1)
	defer unsub()

	evt := SyncCompleted{PageID: "p1", Result: "success", Path: "immediate"}
	require.NoError(t, bus.Publish(context.Background(), evt))

	select {
	case got := <-ch:
		require.Equal(t, "p1", got.PageID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishSkipsOtherTypes(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, unsub := Subscribe[SyncCompleted](bus, 1)
	defer unsub()

	require.NoError(t, bus.Publish(context.Background(), DeferralScheduled{PageID: "p1"}))

	select {
	case <-ch:
		t.Fatal("SyncCompleted subscriber must not receive DeferralScheduled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, unsub := Subscribe[SyncCompleted](bus, 1)
	require.Equal(t, 1, SubscriberCount[SyncCompleted](bus))

	unsub()
	require.Equal(t, 0, SubscriberCount[SyncCompleted](bus))

	_, open := <-ch
	require.False(t, open)
}

func TestPublishAfterCloseFails(t *testing.T) {
	bus := NewBus()
	bus.Close()

	err := bus.Publish(context.Background(), SyncCompleted{})
	require.Error(t, err)
}

func TestPublishBlocksUntilContextCanceled(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	// Unbuffered subscriber that never reads.
	_, unsub := Subscribe[SyncCompleted](bus, 0)
	defer unsub()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := bus.Publish(ctx, SyncCompleted{PageID: "p1"})
	require.Error(t, err)
}
