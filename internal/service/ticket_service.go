package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// PipelineEnqueuer accepts detached processing jobs. Enqueue must never block
// the caller on pipeline work.
type PipelineEnqueuer interface {
	Enqueue(ticketID int64, subject, body string) error
}

// TicketService handles submission and retrieval of tickets.
type TicketService struct {
	tickets    repository.TicketRepository
	pipeline   PipelineEnqueuer
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, pipeline PipelineEnqueuer, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	return &TicketService{
		tickets:    tickets,
		pipeline:   pipeline,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SubmitTicketInput describes a new inbound message.
type SubmitTicketInput struct {
	CustomerName string
	Email        string
	Subject      string
	Body         string
	Category     *string
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SubmitTicket persists a new ticket with status New and hands it to the
// detached pipeline. The caller gets the record back immediately; it never
// waits for classification, embedding or similarity search.
func (s *TicketService) SubmitTicket(ctx context.Context, input SubmitTicketInput) (*domain.Ticket, error) {
	name := strings.TrimSpace(input.CustomerName)
	email := strings.TrimSpace(input.Email)
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)

	if name == "" || email == "" || subject == "" || body == "" {
		return nil, apperrors.NewValidationError(
			"customerName, customerEmail, subject and message are required", nil)
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("invalid email format", nil)
	}

	ticket := &domain.Ticket{
		ReferenceKey: generateReferenceKey(),
		CustomerName: name,
		Email:        email,
		Subject:      subject,
		Body:         body,
		Category:     input.Category,
		Priority:     domain.TicketPriorityMedium,
		Status:       domain.TicketStatusNew,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.logger.Info("ticket submitted",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("reference_key", ticket.ReferenceKey),
		zap.String("subject", ticket.Subject),
	)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			ReferenceKey: ticket.ReferenceKey,
			CustomerName: ticket.CustomerName,
			Subject:      ticket.Subject,
			Category:     ticket.CategoryOrGeneral(),
		},
	})

	if s.pipeline != nil {
		if err := s.pipeline.Enqueue(ticket.ID, ticket.Subject, ticket.Body); err != nil {
			// The ticket stays New; reprocessing is the recovery path.
			s.logger.Error("failed to enqueue ticket for processing",
				zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	return ticket, nil
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// TicketPage is a paginated listing result.
type TicketPage struct {
	Tickets    []domain.Ticket
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// ListTickets returns tickets matching the optional status/category filters.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) (*TicketPage, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	tickets, total, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}

	totalPages := total / filter.Limit
	if total%filter.Limit != 0 {
		totalPages++
	}
	return &TicketPage{
		Tickets:    tickets,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func generateReferenceKey() string {
	return "TRG-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
