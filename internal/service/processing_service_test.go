package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/repository"
)

func newProcessingService(repo *fakeTicketRepo, index *fakeSimilarityIndex, embedder *fakeEmbedder, classifier *fakeClassifier, dispatcher events.Dispatcher) *ProcessingService {
	return NewProcessingService(ProcessingDependencies{
		TicketRepo: repo,
		Index:      index,
		Embedder:   embedder,
		Classifier: classifier,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
	})
}

func TestProcessTicketHappyPath(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := repo.add(domain.Ticket{
		Subject: "card declined",
		Body:    "my payment keeps failing",
		Status:  domain.TicketStatusNew,
	})
	index := &fakeSimilarityIndex{matches: []repository.SimilarTicket{
		{ID: 99, Subject: "old payment issue", Similarity: 0.91},
	}}
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	classifier := &fakeClassifier{label: domain.CategoryPaymentFailure}
	dispatcher := &recordingDispatcher{}
	svc := newProcessingService(repo, index, embedder, classifier, dispatcher)

	result, err := svc.ProcessTicket(context.Background(), ticket.ID, ticket.Subject, ticket.Body)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryPaymentFailure, result.Category)
	assert.Equal(t, domain.TicketPriorityHigh, result.Priority)
	assert.Equal(t, domain.TicketStatusProcessed, result.Status)
	assert.Len(t, result.SimilarTickets, 1)

	stored := repo.stored(ticket.ID)
	require.NotNil(t, stored)
	assert.Equal(t, domain.TicketStatusProcessed, stored.Status)
	require.NotNil(t, stored.Category)
	assert.Equal(t, domain.CategoryPaymentFailure, *stored.Category)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, stored.Embedding)

	// Everything lands in one update.
	patches := repo.patchesFor(ticket.ID)
	require.Len(t, patches, 1)
	assert.NotNil(t, patches[0].Category)
	assert.NotNil(t, patches[0].Priority)
	assert.NotNil(t, patches[0].Status)
	assert.NotEmpty(t, patches[0].Embedding)

	processed := dispatcher.byType(events.EventTicketProcessed)
	require.Len(t, processed, 1)
	assert.Equal(t, ticket.ID, processed[0].TicketID)
}

func TestProcessTicketEmptyLabelFallsBackToGeneral(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := repo.add(domain.Ticket{Subject: "hello", Body: "question", Status: domain.TicketStatusNew})
	svc := newProcessingService(repo, &fakeSimilarityIndex{}, &fakeEmbedder{vector: []float32{0.5}}, &fakeClassifier{label: ""}, &recordingDispatcher{})

	result, err := svc.ProcessTicket(context.Background(), ticket.ID, ticket.Subject, ticket.Body)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryGeneral, result.Category)
	assert.Equal(t, domain.TicketPriorityLow, result.Priority)
}

func TestProcessTicketEmbeddingFailureMarksProcessingFailed(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := repo.add(domain.Ticket{Subject: "hello", Body: "question", Status: domain.TicketStatusNew})
	embedder := &fakeEmbedder{err: errors.New("provider down")}
	classifier := &fakeClassifier{label: domain.CategoryGeneral}
	dispatcher := &recordingDispatcher{}
	svc := newProcessingService(repo, &fakeSimilarityIndex{}, embedder, classifier, dispatcher)

	_, err := svc.ProcessTicket(context.Background(), ticket.ID, ticket.Subject, ticket.Body)
	require.Error(t, err)

	stored := repo.stored(ticket.ID)
	assert.Equal(t, domain.TicketStatusProcessingFailed, stored.Status)
	assert.Zero(t, classifier.calls, "classification should not run after embed failure")

	failed := dispatcher.byType(events.EventTicketProcessingFailed)
	require.Len(t, failed, 1)
}

func TestProcessTicketClassificationFailureMarksProcessingFailed(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := repo.add(domain.Ticket{Subject: "hello", Body: "question", Status: domain.TicketStatusNew})
	svc := newProcessingService(repo, &fakeSimilarityIndex{}, &fakeEmbedder{vector: []float32{0.5}}, &fakeClassifier{err: errors.New("rate limited")}, &recordingDispatcher{})

	_, err := svc.ProcessTicket(context.Background(), ticket.ID, ticket.Subject, ticket.Body)
	require.Error(t, err)
	assert.Equal(t, domain.TicketStatusProcessingFailed, repo.stored(ticket.ID).Status)
}

func TestProcessTicketSimilarityFailureIsNonFatal(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := repo.add(domain.Ticket{Subject: "hello", Body: "question", Status: domain.TicketStatusNew})
	index := &fakeSimilarityIndex{queryErr: errors.New("index offline")}
	svc := newProcessingService(repo, index, &fakeEmbedder{vector: []float32{0.5}}, &fakeClassifier{label: domain.CategoryGeneral}, &recordingDispatcher{})

	result, err := svc.ProcessTicket(context.Background(), ticket.ID, ticket.Subject, ticket.Body)
	require.NoError(t, err)
	assert.Empty(t, result.SimilarTickets)
	assert.Equal(t, domain.TicketStatusProcessed, repo.stored(ticket.ID).Status)
}

func TestProcessTicketIsRerunnable(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := repo.add(domain.Ticket{Subject: "refund please", Body: "want my money back", Status: domain.TicketStatusNew})
	svc := newProcessingService(repo, &fakeSimilarityIndex{}, &fakeEmbedder{vector: []float32{0.5}}, &fakeClassifier{label: domain.CategoryRefund}, &recordingDispatcher{})

	first, err := svc.ProcessTicket(context.Background(), ticket.ID, ticket.Subject, ticket.Body)
	require.NoError(t, err)
	second, err := svc.ProcessTicket(context.Background(), ticket.ID, ticket.Subject, ticket.Body)
	require.NoError(t, err)

	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.Priority, second.Priority)
	assert.Equal(t, domain.TicketStatusProcessed, repo.stored(ticket.ID).Status)
}

func TestGetEnhancedTicketWithEmbedding(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := repo.add(domain.Ticket{
		Subject:   "card declined",
		Body:      "payment fails",
		Status:    domain.TicketStatusProcessed,
		Priority:  domain.TicketPriorityHigh,
		Embedding: []float32{0.1, 0.2},
	})
	index := &fakeSimilarityIndex{matches: []repository.SimilarTicket{{ID: 7, Similarity: 0.8}}}
	svc := newProcessingService(repo, index, &fakeEmbedder{}, &fakeClassifier{}, &recordingDispatcher{})

	enhanced, err := svc.GetEnhancedTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, enhanced.HasSimilarTickets)
	assert.Len(t, enhanced.SimilarTickets, 1)
	assert.True(t, enhanced.CanGenerateDraft)
	assert.Contains(t, enhanced.SuggestedActions, "Generate AI Draft")
	assert.Contains(t, enhanced.SuggestedActions, "Prioritize Response")
}

func TestGetEnhancedTicketWithoutEmbeddingSkipsLookup(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := repo.add(domain.Ticket{Subject: "hello", Body: "hi", Status: domain.TicketStatusNew})
	index := &fakeSimilarityIndex{matches: []repository.SimilarTicket{{ID: 7}}}
	svc := newProcessingService(repo, index, &fakeEmbedder{}, &fakeClassifier{}, &recordingDispatcher{})

	enhanced, err := svc.GetEnhancedTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, index.queries, "no similarity query without an embedding")
	assert.False(t, enhanced.HasSimilarTickets)
	assert.NotNil(t, enhanced.SimilarTickets)
	assert.Empty(t, enhanced.SimilarTickets)
	assert.Equal(t, []string{"Wait for auto-processing"}, enhanced.SuggestedActions)
}

func TestGetEnhancedTicketIndexFailureDegrades(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := repo.add(domain.Ticket{
		Subject:   "hello",
		Body:      "hi",
		Status:    domain.TicketStatusAIDrafted,
		Embedding: []float32{0.3},
	})
	index := &fakeSimilarityIndex{queryErr: errors.New("index offline")}
	svc := newProcessingService(repo, index, &fakeEmbedder{}, &fakeClassifier{}, &recordingDispatcher{})

	enhanced, err := svc.GetEnhancedTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.False(t, enhanced.HasSimilarTickets)
	assert.Empty(t, enhanced.SimilarTickets)
	assert.True(t, enhanced.CanGenerateDraft)
	assert.Contains(t, enhanced.SuggestedActions, "Approve and Send")
}

func TestGetEnhancedTicketNotFound(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newProcessingService(repo, &fakeSimilarityIndex{}, &fakeEmbedder{}, &fakeClassifier{}, &recordingDispatcher{})

	_, err := svc.GetEnhancedTicket(context.Background(), 42)
	require.Error(t, err)
}

func TestSuggestedActionsPerStatus(t *testing.T) {
	tests := []struct {
		status   domain.TicketStatus
		priority domain.TicketPriority
		want     []string
	}{
		{domain.TicketStatusNew, domain.TicketPriorityMedium, []string{"Wait for auto-processing"}},
		{domain.TicketStatusProcessed, domain.TicketPriorityMedium, []string{"Generate AI Draft", "View Similar Tickets"}},
		{domain.TicketStatusProcessed, domain.TicketPriorityHigh, []string{"Generate AI Draft", "View Similar Tickets", "Prioritize Response"}},
		{domain.TicketStatusAIDrafted, domain.TicketPriorityLow, []string{"Review AI Response", "Edit Response", "Approve and Send", "Escalate to Human"}},
		{domain.TicketStatusProcessingFailed, domain.TicketPriorityLow, []string{"Retry Processing", "Manual Classification"}},
		{domain.TicketStatusSent, domain.TicketPriorityLow, []string{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, suggestedActions(tt.status, tt.priority))
		})
	}
}
