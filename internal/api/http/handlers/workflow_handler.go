package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// WorkflowHandler exposes human workflow actions and aggregate stats.
type WorkflowHandler struct {
	workflow *service.WorkflowService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(workflow *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow}
}

// ApproveTicket POST /tickets/:id/approve.
func (h *WorkflowHandler) ApproveTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	if err := h.workflow.Approve(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Ticket approved successfully"})
}

// EscalateTicket POST /tickets/:id/escalate.
func (h *WorkflowHandler) EscalateTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	_ = c.BodyParser(&req) // reason is optional
	if err := h.workflow.Escalate(c.UserContext(), id, req.Reason); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Ticket escalated successfully"})
}

// SetPendingReview POST /tickets/:id/pending-review.
func (h *WorkflowHandler) SetPendingReview(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	if err := h.workflow.SetPendingReview(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Ticket set to pending review"})
}

// UpdateStatus PUT /tickets/:id/status.
func (h *WorkflowHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.workflow.SetStatus(c.UserContext(), id, domain.TicketStatus(req.Status)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Ticket status updated successfully"})
}

// GetStats GET /workflow/stats.
func (h *WorkflowHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.workflow.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
