package service

import (
	"context"

	"github.com/spec-kit/triage-service/internal/llm"
)

// EmbeddingClient produces fixed-length embedding vectors.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ClassificationClient returns a single category label for a message.
type ClassificationClient interface {
	Classify(ctx context.Context, subject, body string) (string, error)
}

// DraftClient generates reply text conditioned on similar prior tickets.
type DraftClient interface {
	GenerateReply(ctx context.Context, subject, body, category string, similar []llm.SimilarContext) (string, error)
}

// ticketContent is the text embeddings are computed from.
func ticketContent(subject, body string) string {
	return subject + "\n\n" + body
}
