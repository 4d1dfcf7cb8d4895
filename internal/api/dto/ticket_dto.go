package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
)

// SubmitTicketRequest payload. Field names follow the submission form.
type SubmitTicketRequest struct {
	CustomerName  string  `json:"customerName"`
	CustomerEmail string  `json:"customerEmail"`
	Subject       string  `json:"subject"`
	Message       string  `json:"message"`
	Category      *string `json:"category"`
}

// UpdateDraftRequest payload.
type UpdateDraftRequest struct {
	AIResponse string `json:"aiResponse"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ClassifyBatchRequest payload.
type ClassifyBatchRequest struct {
	TicketIDs []int64 `json:"ticketIds"`
}

// TicketResponse is the standard ticket representation. The raw embedding is
// never exposed; only its presence is.
type TicketResponse struct {
	ID           int64     `json:"id"`
	ReferenceKey string    `json:"referenceKey"`
	CustomerName string    `json:"customerName"`
	Email        string    `json:"email"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Category     *string   `json:"category"`
	Priority     string    `json:"priority"`
	Status       string    `json:"status"`
	AIResponse   *string   `json:"aiResponse"`
	HasEmbedding bool      `json:"hasEmbedding"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// SimilarTicketResponse is one nearest-neighbor match.
type SimilarTicketResponse struct {
	ID         int64   `json:"id"`
	Subject    string  `json:"subject"`
	Body       string  `json:"body"`
	Category   *string `json:"category"`
	AIResponse *string `json:"aiResponse"`
	Status     string  `json:"status"`
	Similarity float64 `json:"similarity"`
}

// EnhancedTicketResponse adds retrieval context and suggested actions.
type EnhancedTicketResponse struct {
	TicketResponse
	SimilarTickets    []SimilarTicketResponse `json:"similarTickets"`
	HasSimilarTickets bool                    `json:"hasSimilarTickets"`
	CanGenerateDraft  bool                    `json:"canGenerateDraft"`
	SuggestedActions  []string                `json:"suggestedActions"`
}

// Pagination envelope.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TicketListResponse wraps a page of tickets.
type TicketListResponse struct {
	Tickets    []TicketResponse `json:"tickets"`
	Pagination Pagination       `json:"pagination"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           ticket.ID,
		ReferenceKey: ticket.ReferenceKey,
		CustomerName: ticket.CustomerName,
		Email:        ticket.Email,
		Subject:      ticket.Subject,
		Body:         ticket.Body,
		Category:     ticket.Category,
		Priority:     string(ticket.Priority),
		Status:       string(ticket.Status),
		AIResponse:   ticket.AIResponse,
		HasEmbedding: ticket.HasEmbedding(),
		ReceivedAt:   ticket.ReceivedAt,
	}
}

// FromSimilarTicket maps one similarity match.
func FromSimilarTicket(match repository.SimilarTicket) SimilarTicketResponse {
	return SimilarTicketResponse{
		ID:         match.ID,
		Subject:    match.Subject,
		Body:       match.Body,
		Category:   match.Category,
		AIResponse: match.AIResponse,
		Status:     string(match.Status),
		Similarity: match.Similarity,
	}
}

// FromEnhancedTicket maps the assembled enhanced view.
func FromEnhancedTicket(enhanced *service.EnhancedTicket) EnhancedTicketResponse {
	similar := make([]SimilarTicketResponse, 0, len(enhanced.SimilarTickets))
	for _, match := range enhanced.SimilarTickets {
		similar = append(similar, FromSimilarTicket(match))
	}
	return EnhancedTicketResponse{
		TicketResponse:    FromTicket(enhanced.Ticket),
		SimilarTickets:    similar,
		HasSimilarTickets: enhanced.HasSimilarTickets,
		CanGenerateDraft:  enhanced.CanGenerateDraft,
		SuggestedActions:  enhanced.SuggestedActions,
	}
}

// FromTicketPage maps a listing page.
func FromTicketPage(page *service.TicketPage) TicketListResponse {
	items := make([]TicketResponse, 0, len(page.Tickets))
	for i := range page.Tickets {
		items = append(items, FromTicket(&page.Tickets[i]))
	}
	return TicketListResponse{
		Tickets: items,
		Pagination: Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	}
}
