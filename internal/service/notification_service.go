package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/persistence"
)

// NotificationService fans domain events out to the dashboard feed. Events
// are logged and published as JSON on a Redis Pub/Sub channel; real email
// delivery stays a stub.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, redis *persistence.Redis, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketProcessed, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketProcessingFailed, n.handleEvent)
	n.dispatcher.Subscribe(events.EventDraftGenerated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.Int64("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload),
	)
	n.publishToFeed(ctx, event)
	if event.Type == events.EventDraftGenerated {
		n.sendEmailNotificationStub(event)
	}
	return nil
}

func (n *NotificationService) publishToFeed(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.RedisChannel) == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("failed to encode event for feed", zap.Error(err))
		return
	}
	if err := n.redis.Publish(ctx, n.cfg.RedisChannel, payload); err != nil {
		n.logger.Warn("failed to publish event to feed",
			zap.String("channel", n.cfg.RedisChannel), zap.Error(err))
	}
}

func (n *NotificationService) sendEmailNotificationStub(event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int64("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
