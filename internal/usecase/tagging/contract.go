package tagging

import (
	"context"

	"github.com/kailas-cloud/lookbook/internal/domain"
	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
)

// Tagger describes an image as a keyword list.
type Tagger interface {
	Tag(ctx context.Context, img domain.Image) (domain.TagResult, error)
}

// Embedder vectorizes the normalised tag string.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ItemWriter stores an item with its vector.
type ItemWriter interface {
	Add(ctx context.Context, it domitem.Item, vector []float32) error
}
