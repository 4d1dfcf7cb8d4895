package events

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketProcessed        EventType = "ticket_processed"
	EventTicketProcessingFailed EventType = "ticket_processing_failed"
	EventDraftGenerated         EventType = "draft_generated"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReferenceKey string `json:"reference_key"`
	CustomerName string `json:"customer_name"`
	Subject      string `json:"subject"`
	Category     string `json:"category,omitempty"`
}

// TicketProcessedPayload payload.
type TicketProcessedPayload struct {
	Category      string                `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
	SimilarFound  int                   `json:"similar_found"`
	EmbeddingDims int                   `json:"embedding_dims"`
}

// TicketProcessingFailedPayload payload.
type TicketProcessingFailedPayload struct {
	Reason string `json:"reason"`
}

// DraftGeneratedPayload payload.
type DraftGeneratedPayload struct {
	ResponseLength int `json:"response_length"`
	SimilarUsed    int `json:"similar_used"`
}

// TicketStatusChangedPayload payload. Reason carries escalation context for
// the notification feed; it is not persisted on the ticket.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason,omitempty"`
}
