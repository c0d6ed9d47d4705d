package health

import (
	"context"

	"github.com/ragline/ragline/internal/domain/search"
)

// StatsProvider reads collection statistics from the vector store.
type StatsProvider interface {
	Stats(ctx context.Context) (search.CollectionStats, error)
}

// Pinger checks vector store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
