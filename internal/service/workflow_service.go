package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// WorkflowService owns status transitions driven by human action.
//
// Transitions are validated per operation against the tables below rather
// than a single global graph. The tables are deliberately permissive: the
// workflow is loosely enforced, and the one hard precondition anywhere in the
// lifecycle is that approval requires a draft. Tightening the tables changes
// observable behavior and should not be done casually.
type WorkflowService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// allowedFrom lists the source statuses each operation accepts. Every status
// is listed for the permissive operations; the intent of each transition is
// legible here even where nothing is rejected.
var allowedFrom = map[string][]domain.TicketStatus{
	"approve":        domain.AllStatuses,
	"escalate":       domain.AllStatuses,
	"pending_review": domain.AllStatuses,
	"set_status":     domain.AllStatuses,
}

func operationAllowed(operation string, current domain.TicketStatus) bool {
	for _, candidate := range allowedFrom[operation] {
		if candidate == current {
			return true
		}
	}
	return false
}

// NewWorkflowService constructs the service.
func NewWorkflowService(tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{tickets: tickets, dispatcher: dispatcher, logger: logger}
}

// Approve marks the ticket's draft as sent. Fails with InvalidOperation when
// no AI response exists, the one hard lifecycle precondition.
func (s *WorkflowService) Approve(ctx context.Context, ticketID int64) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !operationAllowed("approve", ticket.Status) {
		return apperrors.NewInvalidOperation("ticket cannot be approved in its current status")
	}
	if !ticket.HasDraft() {
		return apperrors.NewInvalidOperation("Cannot approve ticket without AI response")
	}
	if err := s.transition(ctx, ticket, domain.TicketStatusSent, ""); err != nil {
		return err
	}
	s.logger.Info("ticket approved", zap.Int64("ticket_id", ticketID))
	return nil
}

// Escalate hands the ticket to a human agent. The reason is logged and
// carried on the event payload for the notification feed; it is not stored
// on the ticket.
func (s *WorkflowService) Escalate(ctx context.Context, ticketID int64, reason string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !operationAllowed("escalate", ticket.Status) {
		return apperrors.NewInvalidOperation("ticket cannot be escalated in its current status")
	}
	if err := s.transition(ctx, ticket, domain.TicketStatusEscalated, reason); err != nil {
		return err
	}
	s.logger.Info("ticket escalated",
		zap.Int64("ticket_id", ticketID),
		zap.String("reason", reason),
	)
	return nil
}

// SetPendingReview parks the ticket for human review.
func (s *WorkflowService) SetPendingReview(ctx context.Context, ticketID int64) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !operationAllowed("pending_review", ticket.Status) {
		return apperrors.NewInvalidOperation("ticket cannot be set to pending review in its current status")
	}
	return s.transition(ctx, ticket, domain.TicketStatusPendingReview, "")
}

// SetStatus applies an arbitrary status after validating it against the enum.
func (s *WorkflowService) SetStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error {
	if !domain.ValidStatus(status) {
		return apperrors.NewValidationError("invalid status: "+string(status), map[string]any{
			"valid_statuses": domain.AllStatuses,
		})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !operationAllowed("set_status", ticket.Status) {
		return apperrors.NewInvalidOperation("ticket status cannot be changed in its current status")
	}
	return s.transition(ctx, ticket, status, "")
}

func (s *WorkflowService) transition(ctx context.Context, ticket *domain.Ticket, next domain.TicketStatus, reason string) error {
	old := ticket.Status
	if err := s.tickets.Update(ctx, ticket.ID, repository.TicketPatch{Status: &next}); err != nil {
		return err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: old,
			NewStatus: next,
			Reason:    reason,
		},
	})
	return nil
}

// WorkflowStats aggregates ticket counts per status plus the unfiltered
// total. Recomputed on every call; nothing is cached.
type WorkflowStats struct {
	New              int `json:"new"`
	Processed        int `json:"processed"`
	AIDrafted        int `json:"aiDrafted"`
	PendingReview    int `json:"pendingReview"`
	Sent             int `json:"sent"`
	Escalated        int `json:"escalated"`
	ProcessingFailed int `json:"processingFailed"`
	Total            int `json:"total"`
}

// Stats counts tickets in each workflow state.
func (s *WorkflowService) Stats(ctx context.Context) (*WorkflowStats, error) {
	counts, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &WorkflowStats{
		New:              counts[domain.TicketStatusNew],
		Processed:        counts[domain.TicketStatusProcessed],
		AIDrafted:        counts[domain.TicketStatusAIDrafted],
		PendingReview:    counts[domain.TicketStatusPendingReview],
		Sent:             counts[domain.TicketStatusSent],
		Escalated:        counts[domain.TicketStatusEscalated],
		ProcessingFailed: counts[domain.TicketStatusProcessingFailed],
	}
	for _, count := range counts {
		stats.Total += count
	}
	return stats, nil
}
