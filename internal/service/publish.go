package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/triage-service/internal/events"
)

// publishEvent fills in event identity and forwards to the dispatcher. A nil
// dispatcher is a no-op so services stay testable without wiring.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
