package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/events"
)

// countingDispatcher records subscriptions so the fan-out wiring is checkable.
type countingDispatcher struct {
	subscriptions map[events.EventType]int
}

func (d *countingDispatcher) Publish(ctx context.Context, event events.Event) error { return nil }

func (d *countingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	if d.subscriptions == nil {
		d.subscriptions = make(map[events.EventType]int)
	}
	d.subscriptions[eventType]++
}

func TestNotificationServiceSubscribesToAllEvents(t *testing.T) {
	dispatcher := &countingDispatcher{}
	svc := NewNotificationService(dispatcher, nil, zap.NewNop(), config.NotificationConfig{})
	svc.RegisterHandlers()

	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketProcessed,
		events.EventTicketProcessingFailed,
		events.EventDraftGenerated,
		events.EventTicketStatusChanged,
	} {
		require.Equal(t, 1, dispatcher.subscriptions[eventType], "missing subscription for %s", eventType)
	}
}

func TestNotificationServiceHandlesEventsWithoutRedis(t *testing.T) {
	svc := NewNotificationService(&countingDispatcher{}, nil, zap.NewNop(), config.NotificationConfig{
		EmailFrom:    "noreply@example.com",
		RedisChannel: "triage:events",
	})

	// Nil Redis receiver is a no-op; handling must not panic.
	err := svc.handleEvent(context.Background(), events.Event{
		ID:       "evt-1",
		Type:     events.EventDraftGenerated,
		TicketID: 7,
		Payload:  events.DraftGeneratedPayload{ResponseLength: 120, SimilarUsed: 2},
	})
	require.NoError(t, err)
}

func TestNotificationServiceNilDispatcher(t *testing.T) {
	svc := NewNotificationService(nil, nil, zap.NewNop(), config.NotificationConfig{})
	svc.RegisterHandlers() // must not panic
}
