package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/triage-service/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Status   *domain.TicketStatus
	Category *string
	Page     int
	Limit    int
}

// TicketPatch describes a partial update. Nil fields are left untouched;
// last write wins, per-field (no merge conflict resolution).
type TicketPatch struct {
	Category   *string
	Priority   *domain.TicketPriority
	Status     *domain.TicketStatus
	AIResponse *string
	Embedding  []float32
}

// IsEmpty reports whether the patch would change nothing.
func (p TicketPatch) IsEmpty() bool {
	return p.Category == nil && p.Priority == nil && p.Status == nil &&
		p.AIResponse == nil && len(p.Embedding) == 0
}

// TicketRepository encapsulates ticket persistence. The ticket row is owned
// here exclusively; services write back through Update.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Update(ctx context.Context, id int64, patch TicketPatch) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, reference_key, customer_name, email, subject, body,
               category, priority, status, ai_response, embedding::text, received_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reference_key, customer_name, email, subject, body, category, priority, status, ai_response)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, received_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ReferenceKey,
		ticket.CustomerName,
		ticket.Email,
		ticket.Subject,
		ticket.Body,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.AIResponse,
	).Scan(&ticket.ID, &ticket.ReceivedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)

	var (
		ticket    domain.Ticket
		embedding *string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.ReferenceKey,
		&ticket.CustomerName,
		&ticket.Email,
		&ticket.Subject,
		&ticket.Body,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AIResponse,
		&embedding,
		&ticket.ReceivedAt,
	); err != nil {
		return nil, err
	}
	if embedding != nil {
		vec, err := parseVector(*embedding)
		if err != nil {
			return nil, fmt.Errorf("parse embedding for ticket %d: %w", id, err)
		}
		ticket.Embedding = vec
	}
	return &ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, id int64, patch TicketPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	sets := []string{}
	args := []any{}

	if patch.Category != nil {
		args = append(args, *patch.Category)
		sets = append(sets, fmt.Sprintf("category=$%d", len(args)))
	}
	if patch.Priority != nil {
		args = append(args, *patch.Priority)
		sets = append(sets, fmt.Sprintf("priority=$%d", len(args)))
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if patch.AIResponse != nil {
		args = append(args, *patch.AIResponse)
		sets = append(sets, fmt.Sprintf("ai_response=$%d", len(args)))
	}
	if len(patch.Embedding) > 0 {
		args = append(args, encodeVector(patch.Embedding))
		sets = append(sets, fmt.Sprintf("embedding=$%d::vector", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tickets WHERE %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY received_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var (
			status domain.TicketStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket    domain.Ticket
			embedding *string
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ReferenceKey,
			&ticket.CustomerName,
			&ticket.Email,
			&ticket.Subject,
			&ticket.Body,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Status,
			&ticket.AIResponse,
			&embedding,
			&ticket.ReceivedAt,
		); err != nil {
			return nil, err
		}
		if embedding != nil {
			vec, err := parseVector(*embedding)
			if err != nil {
				return nil, err
			}
			ticket.Embedding = vec
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
