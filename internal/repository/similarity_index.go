package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/triage-service/internal/domain"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// SimilarTicket is one nearest-neighbor match returned by the index, with the
// summary fields draft generation needs for prompt context.
type SimilarTicket struct {
	ID           int64
	CustomerName string
	Email        string
	Subject      string
	Body         string
	Category     *string
	AIResponse   *string
	Status       domain.TicketStatus
	Similarity   float64
}

// SimilarityIndex answers k-nearest queries over stored ticket embeddings.
// All vectors must share the provider's fixed dimensionality; mixed dimensions
// are a corruption condition, not a state this interface handles.
type SimilarityIndex interface {
	UpsertEmbedding(ctx context.Context, id int64, vector []float32) error
	QueryNearest(ctx context.Context, vector []float32, k int) ([]SimilarTicket, error)
}

type pgSimilarityIndex struct {
	pool *pgxpool.Pool
}

// NewSimilarityIndex builds a pgvector-backed index over the tickets table.
func NewSimilarityIndex(pool *pgxpool.Pool) SimilarityIndex {
	return &pgSimilarityIndex{pool: pool}
}

func (s *pgSimilarityIndex) UpsertEmbedding(ctx context.Context, id int64, vector []float32) error {
	const query = `UPDATE tickets SET embedding=$1::vector WHERE id=$2`
	cmd, err := s.pool.Exec(ctx, query, encodeVector(vector), id)
	if err != nil {
		return apperrors.NewIndexUnavailable(err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return nil
}

// QueryNearest returns up to k tickets ordered by descending cosine
// similarity (1 - cosine distance). Tie order is store-defined; callers must
// not depend on it.
func (s *pgSimilarityIndex) QueryNearest(ctx context.Context, vector []float32, k int) ([]SimilarTicket, error) {
	if k <= 0 {
		return []SimilarTicket{}, nil
	}

	const query = `
        SELECT id, customer_name, email, subject, body, category, ai_response, status,
               1 - (embedding <=> $1::vector) AS similarity
        FROM tickets
        WHERE embedding IS NOT NULL
        ORDER BY embedding <=> $1::vector
        LIMIT $2`

	rows, err := s.pool.Query(ctx, query, encodeVector(vector), k)
	if err != nil {
		return nil, apperrors.NewIndexUnavailable(err)
	}
	defer rows.Close()

	var result []SimilarTicket
	for rows.Next() {
		var match SimilarTicket
		if err := rows.Scan(
			&match.ID,
			&match.CustomerName,
			&match.Email,
			&match.Subject,
			&match.Body,
			&match.Category,
			&match.AIResponse,
			&match.Status,
			&match.Similarity,
		); err != nil {
			return nil, apperrors.NewIndexUnavailable(err)
		}
		result = append(result, match)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewIndexUnavailable(err)
	}
	return result, nil
}
