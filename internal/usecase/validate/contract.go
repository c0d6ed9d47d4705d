package validate

import (
	"context"

	"github.com/ragline/ragline/internal/domain/search"
)

// Searcher runs retrieval requests end to end.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (search.Response, error)
}

// StatsProvider reads collection statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (search.CollectionStats, error)
}

// Sampler measures metadata completeness over a sample of stored passages.
type Sampler interface {
	SampleCompleteness(ctx context.Context, sampleSize int) (float64, error)
}
