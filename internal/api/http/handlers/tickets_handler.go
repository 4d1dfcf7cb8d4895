package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// TicketsHandler manages ticket submission, retrieval and AI operations.
type TicketsHandler struct {
	tickets        *service.TicketService
	processing     *service.ProcessingService
	classification *service.ClassificationService
	drafts         *service.DraftService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, processing *service.ProcessingService, classification *service.ClassificationService, drafts *service.DraftService) *TicketsHandler {
	return &TicketsHandler{
		tickets:        tickets,
		processing:     processing,
		classification: classification,
		drafts:         drafts,
	}
}

// SubmitTicket POST /tickets.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.SubmitTicket(c.UserContext(), service.SubmitTicketInput{
		CustomerName: req.CustomerName,
		Email:        req.CustomerEmail,
		Subject:      req.Subject,
		Body:         req.Message,
		Category:     req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":    dto.FromTicket(ticket),
		"message": "Ticket submitted successfully. Auto-classification and prioritization in progress.",
	})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := repository.TicketFilter{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 10),
	}
	if status := c.Query("status"); status != "" {
		s := domain.TicketStatus(status)
		filter.Status = &s
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}

	page, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicketPage(page)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// GetEnhancedTicket GET /tickets/:id/enhanced.
func (h *TicketsHandler) GetEnhancedTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	enhanced, err := h.processing.GetEnhancedTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromEnhancedTicket(enhanced)})
}

// ClassifyTicket POST /tickets/:id/classify.
func (h *TicketsHandler) ClassifyTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	category, err := h.classification.ClassifyTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"category": category}})
}

// ClassifyBatch POST /tickets/classify-batch.
func (h *TicketsHandler) ClassifyBatch(c *fiber.Ctx) error {
	var req dto.ClassifyBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.TicketIDs) == 0 {
		return apperrors.NewValidationError("ticketIds required", nil)
	}
	results, err := h.classification.ClassifyBatch(c.UserContext(), req.TicketIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": results})
}

// GenerateDraft POST /tickets/:id/draft.
func (h *TicketsHandler) GenerateDraft(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	draft, err := h.drafts.GenerateDraft(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"aiResponse": draft}})
}

// RegenerateDraft POST /tickets/:id/draft/regenerate.
func (h *TicketsHandler) RegenerateDraft(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	draft, err := h.drafts.RegenerateDraft(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"aiResponse": draft}})
}

// UpdateDraft PUT /tickets/:id/draft.
func (h *TicketsHandler) UpdateDraft(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.drafts.UpdateDraft(c.UserContext(), id, req.AIResponse); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "AI draft updated successfully"})
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket ID", nil)
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
