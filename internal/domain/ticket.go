package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew              TicketStatus = "New"
	TicketStatusProcessed        TicketStatus = "Processed"
	TicketStatusAIDrafted        TicketStatus = "AI-Drafted"
	TicketStatusPendingReview    TicketStatus = "Pending Review"
	TicketStatusSent             TicketStatus = "Sent"
	TicketStatusEscalated        TicketStatus = "Escalated"
	TicketStatusProcessingFailed TicketStatus = "Processing Failed"
)

// AllStatuses lists every valid ticket status in workflow order.
var AllStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusProcessed,
	TicketStatusAIDrafted,
	TicketStatusPendingReview,
	TicketStatusSent,
	TicketStatusEscalated,
	TicketStatusProcessingFailed,
}

// ValidStatus reports whether s is a known ticket status.
func ValidStatus(s TicketStatus) bool {
	for _, candidate := range AllStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketPriority enumerates response urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	return p == TicketPriorityLow || p == TicketPriorityMedium || p == TicketPriorityHigh
}

// Recommended category labels. Category is an open string; the classifier is
// instructed to pick from this set but callers tolerate drift.
const (
	CategoryRefund         = "Refund"
	CategoryPaymentFailure = "Payment Failure"
	CategoryInvoice        = "Invoice"
	CategoryTechnicalIssue = "Technical Issue"
	CategoryAccount        = "Account"
	CategoryGeneral        = "General"
)

// RecommendedCategories is the closed set offered to the classifier.
var RecommendedCategories = []string{
	CategoryRefund,
	CategoryPaymentFailure,
	CategoryInvoice,
	CategoryTechnicalIssue,
	CategoryAccount,
	CategoryGeneral,
}

// Ticket is the sole aggregate: one inbound customer message plus the
// classification and workflow state derived from it. The row is owned by the
// repository; services read a snapshot and write back via partial updates.
type Ticket struct {
	ID           int64
	ReferenceKey string
	CustomerName string
	Email        string
	Subject      string
	Body         string
	Category     *string
	Priority     TicketPriority
	Status       TicketStatus
	// Embedding is the fixed-length vector used for similarity lookups.
	// nil until the pipeline (or a draft refresh) has produced one.
	Embedding  []float32
	AIResponse *string
	ReceivedAt time.Time
}

// HasEmbedding reports whether a similarity vector has been stored.
func (t *Ticket) HasEmbedding() bool {
	return len(t.Embedding) > 0
}

// HasDraft reports whether a non-empty AI response is present. Approval is
// only legal while this holds.
func (t *Ticket) HasDraft() bool {
	return t.AIResponse != nil && *t.AIResponse != ""
}

// CategoryOrGeneral returns the stored category, defaulting to General when
// the ticket has not been classified yet.
func (t *Ticket) CategoryOrGeneral() string {
	if t.Category == nil || *t.Category == "" {
		return CategoryGeneral
	}
	return *t.Category
}
