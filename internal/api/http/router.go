package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Tickets  *handlers.TicketsHandler
	Workflow *handlers.WorkflowHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets")
	tickets.Post("", cfg.Tickets.SubmitTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("/classify-batch", cfg.Tickets.ClassifyBatch)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/enhanced", cfg.Tickets.GetEnhancedTicket)
	tickets.Post("/:id/classify", cfg.Tickets.ClassifyTicket)
	tickets.Post("/:id/draft", cfg.Tickets.GenerateDraft)
	tickets.Post("/:id/draft/regenerate", cfg.Tickets.RegenerateDraft)
	tickets.Put("/:id/draft", cfg.Tickets.UpdateDraft)
	tickets.Post("/:id/approve", cfg.Workflow.ApproveTicket)
	tickets.Post("/:id/escalate", cfg.Workflow.EscalateTicket)
	tickets.Post("/:id/pending-review", cfg.Workflow.SetPendingReview)
	tickets.Put("/:id/status", cfg.Workflow.UpdateStatus)

	app.Get("/workflow/stats", cfg.Workflow.GetStats)
}
