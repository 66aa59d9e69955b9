package search

import (
	"context"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/domain/search/hit"
)

// VectorStore is the read side of the item store.
type VectorStore interface {
	Query(ctx context.Context, vector []float32, k int, filters map[string]string) ([]hit.SearchHit, error)
	Corpus(ctx context.Context) ([]any, error)
}

// Embedder vectorizes search queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
