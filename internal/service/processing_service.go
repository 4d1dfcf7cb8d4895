package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/repository"
)

// ProcessingService runs the automated triage pipeline: embed, classify,
// score priority, retrieve similar tickets, persist. It is invoked out of
// band after ticket creation and is safe to re-run for the same id.
type ProcessingService struct {
	tickets      repository.TicketRepository
	index        repository.SimilarityIndex
	embedder     EmbeddingClient
	classifier   ClassificationClient
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	metrics      *observability.Metrics
	similarLimit int
}

// ProcessingDependencies bundles collaborators for the pipeline.
type ProcessingDependencies struct {
	TicketRepo   repository.TicketRepository
	Index        repository.SimilarityIndex
	Embedder     EmbeddingClient
	Classifier   ClassificationClient
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	SimilarLimit int
}

// ProcessingResult summarizes one completed pipeline run.
type ProcessingResult struct {
	TicketID       int64
	Category       string
	Priority       domain.TicketPriority
	SimilarTickets []repository.SimilarTicket
	Status         domain.TicketStatus
}

// EnhancedTicket is the read-only assembled view: record, best-effort similar
// matches, and actions suggested for the current state.
type EnhancedTicket struct {
	Ticket            *domain.Ticket
	SimilarTickets    []repository.SimilarTicket
	HasSimilarTickets bool
	CanGenerateDraft  bool
	SuggestedActions  []string
}

// NewProcessingService constructs the pipeline service.
func NewProcessingService(deps ProcessingDependencies) *ProcessingService {
	limit := deps.SimilarLimit
	if limit <= 0 {
		limit = 3
	}
	return &ProcessingService{
		tickets:      deps.TicketRepo,
		index:        deps.Index,
		embedder:     deps.Embedder,
		classifier:   deps.Classifier,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		similarLimit: limit,
	}
}

// ProcessTicket classifies, prioritizes and embeds a ticket, then persists
// everything in a single update. Embedding and classification failures are
// terminal for the run: the ticket is marked Processing Failed and the error
// returned for the caller's fire-and-forget boundary to log. The similarity
// lookup is best-effort and never aborts the run.
func (s *ProcessingService) ProcessTicket(ctx context.Context, ticketID int64, subject, body string) (*ProcessingResult, error) {
	s.logger.Info("starting automated ticket processing", zap.Int64("ticket_id", ticketID))

	embedding, err := s.embedder.Embed(ctx, ticketContent(subject, body))
	if err != nil {
		s.markProcessingFailed(ctx, ticketID, err)
		return nil, err
	}

	category, err := s.classifier.Classify(ctx, subject, body)
	if err != nil {
		s.markProcessingFailed(ctx, ticketID, err)
		return nil, err
	}
	if category == "" {
		category = domain.CategoryGeneral
	}

	priority := ScorePriority(subject, body, category)

	var similar []repository.SimilarTicket
	if matches, err := s.index.QueryNearest(ctx, embedding, s.similarLimit); err != nil {
		s.logger.Warn("similarity lookup failed, continuing without matches",
			zap.Int64("ticket_id", ticketID), zap.Error(err))
	} else {
		similar = matches
	}

	status := domain.TicketStatusProcessed
	patch := repository.TicketPatch{
		Category:  &category,
		Priority:  &priority,
		Status:    &status,
		Embedding: embedding,
	}
	if err := s.tickets.Update(ctx, ticketID, patch); err != nil {
		s.markProcessingFailed(ctx, ticketID, err)
		return nil, err
	}

	s.metrics.RecordPipelineRun("processed")
	s.logger.Info("automated ticket processing completed",
		zap.Int64("ticket_id", ticketID),
		zap.String("category", category),
		zap.String("priority", string(priority)),
		zap.Int("similar_tickets_found", len(similar)),
	)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketProcessed,
		TicketID: ticketID,
		Payload: events.TicketProcessedPayload{
			Category:      category,
			Priority:      priority,
			SimilarFound:  len(similar),
			EmbeddingDims: len(embedding),
		},
	})

	return &ProcessingResult{
		TicketID:       ticketID,
		Category:       category,
		Priority:       priority,
		SimilarTickets: similar,
		Status:         status,
	}, nil
}

// markProcessingFailed degrades the ticket instead of leaving it New forever.
// The failure update itself is best-effort.
func (s *ProcessingService) markProcessingFailed(ctx context.Context, ticketID int64, cause error) {
	s.metrics.RecordPipelineRun("failed")
	status := domain.TicketStatusProcessingFailed
	if err := s.tickets.Update(ctx, ticketID, repository.TicketPatch{Status: &status}); err != nil {
		s.logger.Error("failed to mark ticket as processing failed",
			zap.Int64("ticket_id", ticketID), zap.Error(err))
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketProcessingFailed,
		TicketID: ticketID,
		Payload:  events.TicketProcessingFailedPayload{Reason: cause.Error()},
	})
}

// GetEnhancedTicket assembles the record, a best-effort similarity lookup and
// the suggested-actions list. Absent embedding or an unavailable index both
// degrade to an empty match list, never an error.
func (s *ProcessingService) GetEnhancedTicket(ctx context.Context, ticketID int64) (*EnhancedTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	var similar []repository.SimilarTicket
	if ticket.HasEmbedding() {
		if matches, err := s.index.QueryNearest(ctx, ticket.Embedding, s.similarLimit); err != nil {
			s.logger.Warn("failed to find similar tickets",
				zap.Int64("ticket_id", ticketID), zap.Error(err))
		} else {
			similar = matches
		}
	}
	if similar == nil {
		similar = []repository.SimilarTicket{}
	}

	return &EnhancedTicket{
		Ticket:            ticket,
		SimilarTickets:    similar,
		HasSimilarTickets: len(similar) > 0,
		CanGenerateDraft: ticket.Status == domain.TicketStatusProcessed ||
			ticket.Status == domain.TicketStatusNew ||
			ticket.Status == domain.TicketStatusAIDrafted,
		SuggestedActions: suggestedActions(ticket.Status, ticket.Priority),
	}, nil
}

// suggestedActions maps (status, priority) to the dashboard action list.
func suggestedActions(status domain.TicketStatus, priority domain.TicketPriority) []string {
	actions := []string{}
	switch status {
	case domain.TicketStatusNew:
		actions = append(actions, "Wait for auto-processing")
	case domain.TicketStatusProcessed:
		actions = append(actions, "Generate AI Draft", "View Similar Tickets")
		if priority == domain.TicketPriorityHigh {
			actions = append(actions, "Prioritize Response")
		}
	case domain.TicketStatusAIDrafted:
		actions = append(actions, "Review AI Response", "Edit Response", "Approve and Send", "Escalate to Human")
	case domain.TicketStatusProcessingFailed:
		actions = append(actions, "Retry Processing", "Manual Classification")
	}
	return actions
}
