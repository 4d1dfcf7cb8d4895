package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/triage-service/internal/domain"
)

func TestScorePriority(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		body     string
		category string
		want     domain.TicketPriority
	}{
		{
			name:     "urgency keyword in subject",
			subject:  "URGENT: cannot log in",
			body:     "please help",
			category: domain.CategoryGeneral,
			want:     domain.TicketPriorityHigh,
		},
		{
			name:     "urgency keyword in body",
			subject:  "login question",
			body:     "the dashboard is not working at all",
			category: domain.CategoryGeneral,
			want:     domain.TicketPriorityHigh,
		},
		{
			name:     "urgency dominates low priority category",
			subject:  "urgent invoice question",
			body:     "need the invoice today",
			category: domain.CategoryInvoice,
			want:     domain.TicketPriorityHigh,
		},
		{
			name:     "keyword match is case insensitive",
			subject:  "AsAp please",
			body:     "renewal",
			category: domain.CategoryGeneral,
			want:     domain.TicketPriorityHigh,
		},
		{
			name:     "payment failure is high",
			subject:  "card declined",
			body:     "my card was declined",
			category: domain.CategoryPaymentFailure,
			want:     domain.TicketPriorityHigh,
		},
		{
			name:     "technical issue is medium",
			subject:  "bug report",
			body:     "page renders oddly",
			category: domain.CategoryTechnicalIssue,
			want:     domain.TicketPriorityMedium,
		},
		{
			name:     "refund is medium",
			subject:  "refund please",
			body:     "I want my money back",
			category: domain.CategoryRefund,
			want:     domain.TicketPriorityMedium,
		},
		{
			name:     "account is medium",
			subject:  "change my profile",
			body:     "update email on file",
			category: domain.CategoryAccount,
			want:     domain.TicketPriorityMedium,
		},
		{
			name:     "invoice is low",
			subject:  "invoice copy",
			body:     "resend last month's invoice",
			category: domain.CategoryInvoice,
			want:     domain.TicketPriorityLow,
		},
		{
			name:     "general is low",
			subject:  "feedback",
			body:     "love the product",
			category: domain.CategoryGeneral,
			want:     domain.TicketPriorityLow,
		},
		{
			name:     "unknown category defaults to medium",
			subject:  "hello",
			body:     "question about something",
			category: "Shipping",
			want:     domain.TicketPriorityMedium,
		},
		{
			name:     "empty category defaults to medium",
			subject:  "hello",
			body:     "question",
			category: "",
			want:     domain.TicketPriorityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScorePriority(tt.subject, tt.body, tt.category))
		})
	}
}

func TestScorePriorityIsDeterministic(t *testing.T) {
	first := ScorePriority("card declined", "payment keeps failing", domain.CategoryPaymentFailure)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ScorePriority("card declined", "payment keeps failing", domain.CategoryPaymentFailure))
	}
}
