package service

import (
	"strings"

	"github.com/spec-kit/triage-service/internal/domain"
)

// urgencyKeywords force high priority regardless of category.
var urgencyKeywords = []string{
	"urgent",
	"emergency",
	"not working",
	"critical",
	"immediate",
	"asap",
}

var categoryPriority = map[string]domain.TicketPriority{
	domain.CategoryPaymentFailure: domain.TicketPriorityHigh,
	domain.CategoryTechnicalIssue: domain.TicketPriorityMedium,
	domain.CategoryRefund:         domain.TicketPriorityMedium,
	domain.CategoryAccount:        domain.TicketPriorityMedium,
	domain.CategoryInvoice:        domain.TicketPriorityLow,
	domain.CategoryGeneral:        domain.TicketPriorityLow,
}

// ScorePriority derives a priority from message content and category. Pure
// and total: no I/O, never fails. Urgency keywords dominate the category
// table; unknown or empty categories map to medium.
func ScorePriority(subject, body, category string) domain.TicketPriority {
	content := strings.ToLower(subject + " " + body)
	for _, keyword := range urgencyKeywords {
		if strings.Contains(content, keyword) {
			return domain.TicketPriorityHigh
		}
	}

	if priority, ok := categoryPriority[category]; ok {
		return priority
	}
	return domain.TicketPriorityMedium
}
