package port

import (
	"context"

	"devassist/internal/domain"
)

// SimilarityIndex is the retrieval side of the document index.
type SimilarityIndex interface {
	Configure(endpoint, model string)

	Upsert(ctx context.Context, id, content string) error

	Query(ctx context.Context, text string, limit int) ([]domain.IndexedDocument, error)

	QueryScored(ctx context.Context, text string, limit int) ([]domain.ScoredDocument, error)

	Count() int

	Clear()
}
