package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	c, _ := newCenter()
	ctx := context.Background()
	events, cancel := c.Subscribe()
	defer cancel()

	n := create(t, c, "a")
	ev := recv(t, events)
	require.Equal(t, EventCreated, ev.Type)
	require.Equal(t, n.ID, ev.Notification.ID)

	require.NoError(t, c.MarkRead(ctx, n.ID))
	require.Equal(t, EventRead, recv(t, events).Type)

	// a second MarkRead changes nothing and publishes nothing
	require.NoError(t, c.MarkRead(ctx, n.ID))
	require.NoError(t, c.Remove(ctx, n.ID))
	ev = recv(t, events)
	require.Equal(t, EventRemoved, ev.Type)
	require.False(t, ev.WasUnread)
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe()
	require.Equal(t, 1, h.Subscribers())
	cancel()
	cancel()
	require.Zero(t, h.Subscribers())
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()
	for i := 0; i < subscriberBuffer+1; i++ {
		h.Publish(Event{Type: EventCreated})
	}
	require.Zero(t, h.Subscribers())

	drained := 0
	for range ch {
		drained++
	}
	require.Equal(t, subscriberBuffer, drained)
}
