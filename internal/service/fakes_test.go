package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/llm"
	"github.com/spec-kit/triage-service/internal/repository"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[int64]*domain.Ticket
	nextID  int64
	patches map[int64][]repository.TicketPatch

	createErr error
	getErr    error
	updateErr error
	listErr   error
	countErr  error

	listResult []domain.Ticket
	listTotal  int
	counts     map[domain.TicketStatus]int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[int64]*domain.Ticket),
		patches: make(map[int64][]repository.TicketPatch),
	}
}

func (f *fakeTicketRepo) add(ticket domain.Ticket) *domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ticket.ID == 0 {
		f.nextID++
		ticket.ID = f.nextID
	} else if ticket.ID > f.nextID {
		f.nextID = ticket.ID
	}
	f.tickets[ticket.ID] = &ticket
	return &ticket
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ticket.ID = f.nextID
	stored := *ticket
	f.tickets[ticket.ID] = &stored
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	snapshot := *stored
	return &snapshot, nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, id int64, patch repository.TicketPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	f.patches[id] = append(f.patches[id], patch)
	if patch.Category != nil {
		category := *patch.Category
		stored.Category = &category
	}
	if patch.Priority != nil {
		stored.Priority = *patch.Priority
	}
	if patch.Status != nil {
		stored.Status = *patch.Status
	}
	if patch.AIResponse != nil {
		response := *patch.AIResponse
		stored.AIResponse = &response
	}
	if len(patch.Embedding) > 0 {
		stored.Embedding = append([]float32(nil), patch.Embedding...)
	}
	return nil
}

func (f *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.listResult, f.listTotal, nil
}

func (f *fakeTicketRepo) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	return f.counts, nil
}

func (f *fakeTicketRepo) patchesFor(id int64) []repository.TicketPatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.TicketPatch(nil), f.patches[id]...)
}

func (f *fakeTicketRepo) stored(id int64) *domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[id]
	if !ok {
		return nil
	}
	snapshot := *stored
	return &snapshot
}

type fakeSimilarityIndex struct {
	matches   []repository.SimilarTicket
	queryErr  error
	upsertErr error
	queries   [][]float32
	upserts   map[int64][]float32
}

func (f *fakeSimilarityIndex) UpsertEmbedding(ctx context.Context, id int64, vector []float32) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.upserts == nil {
		f.upserts = make(map[int64][]float32)
	}
	f.upserts[id] = append([]float32(nil), vector...)
	return nil
}

func (f *fakeSimilarityIndex) QueryNearest(ctx context.Context, vector []float32, k int) ([]repository.SimilarTicket, error) {
	f.queries = append(f.queries, vector)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeClassifier struct {
	label string
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, subject, body string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.label, nil
}

type fakeDrafter struct {
	reply   string
	err     error
	similar [][]llm.SimilarContext
}

func (f *fakeDrafter) GenerateReply(ctx context.Context, subject, body, category string, similar []llm.SimilarContext) (string, error) {
	f.similar = append(f.similar, similar)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeEnqueuer struct {
	jobs []int64
	err  error
}

func (f *fakeEnqueuer) Enqueue(ticketID int64, subject, body string) error {
	f.jobs = append(f.jobs, ticketID)
	return f.err
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func strPtr(s string) *string { return &s }
