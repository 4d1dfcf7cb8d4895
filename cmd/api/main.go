package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/triage-service/internal/api/http"
	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/llm"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/persistence"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
	"github.com/spec-kit/triage-service/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	similarityIndex := repository.NewSimilarityIndex(pool)
	provider := llm.NewClient(cfg.OpenAI, logger, metrics)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, redis, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	processingService := service.NewProcessingService(service.ProcessingDependencies{
		TicketRepo:   ticketRepo,
		Index:        similarityIndex,
		Embedder:     provider,
		Classifier:   provider,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
		SimilarLimit: cfg.Pipeline.SimilarLimit,
	})
	classificationService := service.NewClassificationService(ticketRepo, provider, provider, dispatcher, logger)
	draftService := service.NewDraftService(service.DraftDependencies{
		TicketRepo:   ticketRepo,
		Index:        similarityIndex,
		Embedder:     provider,
		Drafter:      provider,
		Classifier:   classificationService,
		Dispatcher:   dispatcher,
		Logger:       logger,
		SimilarLimit: cfg.Pipeline.SimilarLimit,
	})
	workflowService := service.NewWorkflowService(ticketRepo, dispatcher, logger)

	pipelineWorker := worker.NewPipelineWorker(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize,
		func(ctx context.Context, ticketID int64, subject, body string) error {
			_, err := processingService.ProcessTicket(ctx, ticketID, subject, body)
			return err
		}, logger)
	pipelineWorker.Start(ctx)
	defer pipelineWorker.Stop()

	ticketService := service.NewTicketService(ticketRepo, pipelineWorker, dispatcher, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	ticketsHandler := handlers.NewTicketsHandler(ticketService, processingService, classificationService, draftService)
	workflowHandler := handlers.NewWorkflowHandler(workflowService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   healthHandler,
		Tickets:  ticketsHandler,
		Workflow: workflowHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
