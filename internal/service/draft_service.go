package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/llm"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// DraftService generates and edits AI reply drafts.
type DraftService struct {
	tickets      repository.TicketRepository
	index        repository.SimilarityIndex
	embedder     EmbeddingClient
	drafter      DraftClient
	classifier   *ClassificationService
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	similarLimit int
}

// DraftDependencies bundles collaborators for draft generation.
type DraftDependencies struct {
	TicketRepo   repository.TicketRepository
	Index        repository.SimilarityIndex
	Embedder     EmbeddingClient
	Drafter      DraftClient
	Classifier   *ClassificationService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	SimilarLimit int
}

// NewDraftService constructs the service.
func NewDraftService(deps DraftDependencies) *DraftService {
	limit := deps.SimilarLimit
	if limit <= 0 {
		limit = 3
	}
	return &DraftService{
		tickets:      deps.TicketRepo,
		index:        deps.Index,
		embedder:     deps.Embedder,
		drafter:      deps.Drafter,
		classifier:   deps.Classifier,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		similarLimit: limit,
	}
}

// GenerateDraft produces a reply draft for the ticket and persists it with
// status AI-Drafted. The embedding is always recomputed from the current
// subject and body, a deliberate refresh rather than a cache check. Both the
// refresh and the similarity lookup are independently best-effort; only the
// generation call itself is fatal, and on its failure the record is left
// unchanged.
func (s *DraftService) GenerateDraft(ctx context.Context, ticketID int64) (string, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return "", err
	}

	var embedding []float32
	if vec, err := s.embedder.Embed(ctx, ticketContent(ticket.Subject, ticket.Body)); err != nil {
		s.logger.Warn("failed to refresh embedding, drafting without similarity context",
			zap.Int64("ticket_id", ticketID), zap.Error(err))
	} else {
		embedding = vec
		if err := s.index.UpsertEmbedding(ctx, ticketID, vec); err != nil {
			s.logger.Warn("failed to persist refreshed embedding",
				zap.Int64("ticket_id", ticketID), zap.Error(err))
		}
	}

	var similar []repository.SimilarTicket
	if len(embedding) > 0 {
		if matches, err := s.index.QueryNearest(ctx, embedding, s.similarLimit); err != nil {
			s.logger.Warn("failed to find similar tickets, proceeding without context",
				zap.Int64("ticket_id", ticketID), zap.Error(err))
		} else {
			similar = matches
		}
	}

	contextTickets := make([]llm.SimilarContext, 0, len(similar))
	for _, match := range similar {
		prior := llm.SimilarContext{Subject: match.Subject, Body: match.Body}
		if match.AIResponse != nil {
			prior.AIResponse = *match.AIResponse
		}
		contextTickets = append(contextTickets, prior)
	}

	draft, err := s.drafter.GenerateReply(ctx, ticket.Subject, ticket.Body, ticket.CategoryOrGeneral(), contextTickets)
	if err != nil {
		return "", apperrors.NewDraftGenerationError(err)
	}

	status := domain.TicketStatusAIDrafted
	patch := repository.TicketPatch{
		AIResponse: &draft,
		Status:     &status,
	}
	if err := s.tickets.Update(ctx, ticketID, patch); err != nil {
		return "", err
	}

	s.logger.Info("AI draft generated",
		zap.Int64("ticket_id", ticketID),
		zap.Int("response_length", len(draft)),
		zap.Int("similar_tickets_used", len(similar)),
	)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventDraftGenerated,
		TicketID: ticketID,
		Payload: events.DraftGeneratedPayload{
			ResponseLength: len(draft),
			SimilarUsed:    len(similar),
		},
	})
	return draft, nil
}

// RegenerateDraft reclassifies the ticket first so the draft reflects the
// latest category, then generates a fresh draft.
func (s *DraftService) RegenerateDraft(ctx context.Context, ticketID int64) (string, error) {
	if s.classifier != nil {
		if _, err := s.classifier.ClassifyTicket(ctx, ticketID); err != nil {
			return "", err
		}
	}
	return s.GenerateDraft(ctx, ticketID)
}

// UpdateDraft overwrites the draft text in place. Manual-edit path: no
// status change, no history kept.
func (s *DraftService) UpdateDraft(ctx context.Context, ticketID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("draft text must not be empty", nil)
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return err
	}
	if err := s.tickets.Update(ctx, ticketID, repository.TicketPatch{AIResponse: &text}); err != nil {
		return err
	}
	s.logger.Info("AI draft updated manually",
		zap.Int64("ticket_id", ticketID),
		zap.Int("response_length", len(text)),
	)
	return nil
}
