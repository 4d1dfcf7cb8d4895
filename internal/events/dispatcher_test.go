package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var received []Event
	d.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		received = append(received, event)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{ID: "1", Type: EventTicketCreated, TicketID: 42}))
	require.Len(t, received, 1)
	assert.Equal(t, int64(42), received[0].TicketID)
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	d := NewInMemoryDispatcher()

	called := false
	d.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventDraftGenerated}))
	assert.False(t, called)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	var order []string
	d.Subscribe(EventTicketProcessed, func(ctx context.Context, event Event) error {
		order = append(order, "first")
		return errors.New("handler failed")
	})
	d.Subscribe(EventTicketProcessed, func(ctx context.Context, event Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketProcessed}))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDispatcherMultipleSubscribersSameType(t *testing.T) {
	d := NewInMemoryDispatcher()

	count := 0
	for i := 0; i < 3; i++ {
		d.Subscribe(EventTicketStatusChanged, func(ctx context.Context, event Event) error {
			count++
			return nil
		})
	}

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketStatusChanged}))
	assert.Equal(t, 3, count)
}
