package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/llm"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/persistence"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
)

type sampleTicket struct {
	customerName string
	email        string
	subject      string
	body         string
}

var samples = []sampleTicket{
	{
		customerName: "Sarah Johnson",
		email:        "sarah.johnson@example.com",
		subject:      "Refund request for order #48213",
		body:         "Hi, I ordered the premium plan last week but it doesn't fit my needs. I'd like a full refund to my original payment method. Order number is 48213.",
	},
	{
		customerName: "Miguel Torres",
		email:        "m.torres@example.com",
		subject:      "URGENT: payment keeps failing",
		body:         "My card is being declined every time I try to renew my subscription. I've tried three different cards. This is urgent, my team loses access tomorrow.",
	},
	{
		customerName: "Priya Patel",
		email:        "priya.patel@example.com",
		subject:      "Invoice missing VAT number",
		body:         "The invoice for August does not include our company VAT number. Could you reissue it with VAT ID GB123456789? Our accounting team needs it for filing.",
	},
	{
		customerName: "Tom Becker",
		email:        "tom.becker@example.com",
		subject:      "Dashboard not loading after update",
		body:         "Since this morning the analytics dashboard shows a blank page. Console shows a 500 error from the /api/reports endpoint. Nothing was changed on our side.",
	},
	{
		customerName: "Amina Diallo",
		email:        "amina.d@example.com",
		subject:      "Cannot reset my password",
		body:         "The password reset email never arrives. I checked spam. My account email is amina.d@example.com. Can you trigger a reset manually or unlock the account?",
	},
	{
		customerName: "Lars Eriksen",
		email:        "lars.e@example.com",
		subject:      "Question about API rate limits",
		body:         "What are the rate limits on the public API for the starter tier? The docs mention 100 requests per minute but I'm seeing throttling at around 60.",
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	ticketRepo := repository.NewTicketRepository(pg.PoolHandle())
	similarityIndex := repository.NewSimilarityIndex(pg.PoolHandle())
	provider := llm.NewClient(cfg.OpenAI, logger, metrics)
	dispatcher := events.NewInMemoryDispatcher()

	processing := service.NewProcessingService(service.ProcessingDependencies{
		TicketRepo:   ticketRepo,
		Index:        similarityIndex,
		Embedder:     provider,
		Classifier:   provider,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
		SimilarLimit: cfg.Pipeline.SimilarLimit,
	})

	for _, sample := range samples {
		ticket := &domain.Ticket{
			ReferenceKey: "TRG-" + strings.ToUpper(uuid.NewString()[:8]),
			CustomerName: sample.customerName,
			Email:        sample.email,
			Subject:      sample.subject,
			Body:         sample.body,
			Priority:     domain.TicketPriorityMedium,
			Status:       domain.TicketStatusNew,
			ReceivedAt:   time.Now().UTC(),
		}
		if err := ticketRepo.Create(ctx, ticket); err != nil {
			logger.Error("failed to create sample ticket", zap.String("subject", sample.subject), zap.Error(err))
			continue
		}
		logger.Info("sample ticket created", zap.Int64("ticket_id", ticket.ID), zap.String("reference_key", ticket.ReferenceKey))

		// Seed runs the pipeline synchronously so seeded data is fully triaged.
		if _, err := processing.ProcessTicket(ctx, ticket.ID, ticket.Subject, ticket.Body); err != nil {
			logger.Warn("pipeline failed for sample ticket", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	logger.Info("seeding complete", zap.Int("tickets", len(samples)))
}
