package search

import (
	"context"

	"github.com/ragline/ragline/internal/domain"
	"github.com/ragline/ragline/internal/domain/search"
)

// Repository performs vector similarity searches against the passage store.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, k int, filter search.Filter) ([]search.Result, error)
}

// Embedder turns query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
