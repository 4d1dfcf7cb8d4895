package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
)

// ClassificationService reclassifies existing tickets on demand. Unlike the
// detached pipeline this path is synchronous: provider failures surface to
// the caller and the record is left unchanged.
type ClassificationService struct {
	tickets    repository.TicketRepository
	embedder   EmbeddingClient
	classifier ClassificationClient
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewClassificationService constructs the service.
func NewClassificationService(tickets repository.TicketRepository, embedder EmbeddingClient, classifier ClassificationClient, dispatcher events.Dispatcher, logger *zap.Logger) *ClassificationService {
	return &ClassificationService{
		tickets:    tickets,
		embedder:   embedder,
		classifier: classifier,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ClassifyTicket recomputes the embedding and category for one ticket and
// persists both. Returns the new category.
func (s *ClassificationService) ClassifyTicket(ctx context.Context, ticketID int64) (string, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return "", err
	}

	embedding, err := s.embedder.Embed(ctx, ticketContent(ticket.Subject, ticket.Body))
	if err != nil {
		return "", err
	}

	category, err := s.classifier.Classify(ctx, ticket.Subject, ticket.Body)
	if err != nil {
		return "", err
	}
	if category == "" {
		category = domain.CategoryGeneral
	}

	patch := repository.TicketPatch{
		Category:  &category,
		Embedding: embedding,
	}
	if err := s.tickets.Update(ctx, ticketID, patch); err != nil {
		return "", err
	}

	s.logger.Info("ticket classification completed",
		zap.Int64("ticket_id", ticketID),
		zap.String("category", category),
	)
	return category, nil
}

// BatchClassifyResult is one entry from a batch run.
type BatchClassifyResult struct {
	TicketID int64  `json:"ticket_id"`
	Category string `json:"category"`
}

// ClassifyBatch reclassifies several tickets. A failure for one id degrades
// that entry to General and the batch continues.
func (s *ClassificationService) ClassifyBatch(ctx context.Context, ticketIDs []int64) ([]BatchClassifyResult, error) {
	results := make([]BatchClassifyResult, 0, len(ticketIDs))
	for _, id := range ticketIDs {
		category, err := s.ClassifyTicket(ctx, id)
		if err != nil {
			s.logger.Error("failed to classify ticket in batch",
				zap.Int64("ticket_id", id), zap.Error(err))
			category = domain.CategoryGeneral
		}
		results = append(results, BatchClassifyResult{TicketID: id, Category: category})
	}
	s.logger.Info("batch classification completed", zap.Int("total_processed", len(results)))
	return results, nil
}
