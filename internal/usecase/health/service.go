// Package health reports service liveness and passage collection statistics.
package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/domain/search"
	"github.com/ragline/ragline/internal/retry"
)

// Component health states.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// Component is the health of a single dependency.
type Component struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report is the aggregate health of the service.
type Report struct {
	Status     string               `json:"status"`
	Components map[string]Component `json:"components"`
}

// Service checks dependency health and reads collection statistics.
type Service struct {
	stats    StatsProvider
	pinger   Pinger
	embedder EmbeddingChecker
	retry    retry.Config
	logger   *zap.Logger
}

// New creates a health service.
func New(stats StatsProvider, pinger Pinger, embedder EmbeddingChecker, logger *zap.Logger) *Service {
	return &Service{
		stats:    stats,
		pinger:   pinger,
		embedder: embedder,
		retry:    retry.DefaultConfig(),
		logger:   logger,
	}
}

// Check pings each dependency. The aggregate status is "ok" only when every
// component is healthy; an embedding provider failure degrades rather than
// fails the service, since cached health may still serve reads.
func (s *Service) Check(ctx context.Context) Report {
	components := make(map[string]Component, 2)

	status := StatusOK

	if err := s.pinger.Ping(ctx); err != nil {
		components["vector_store"] = Component{Status: StatusError, Error: err.Error()}
		status = StatusError
		s.logger.Warn("vector store ping failed", zap.Error(err))
	} else {
		components["vector_store"] = Component{Status: StatusOK}
	}

	if err := s.embedder.HealthCheck(ctx); err != nil {
		components["embedding_provider"] = Component{Status: StatusError, Error: err.Error()}
		if status == StatusOK {
			status = StatusDegraded
		}
		s.logger.Warn("embedding provider health check failed", zap.Error(err))
	} else {
		components["embedding_provider"] = Component{Status: StatusOK}
	}

	return Report{Status: status, Components: components}
}

// Stats returns a snapshot of the passage collection, retrying transient
// store failures.
func (s *Service) Stats(ctx context.Context) (search.CollectionStats, error) {
	return retry.Do(ctx, s.retry, s.logger, "collection_stats",
		func(ctx context.Context) (search.CollectionStats, error) {
			return s.stats.Stats(ctx)
		})
}
