// Package search orchestrates a retrieval request end to end: embed the
// query, run the filtered vector search, then apply the confidence policy to
// the raw hits.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/domain"
	"github.com/ragline/ragline/internal/domain/search"
	"github.com/ragline/ragline/internal/metrics"
	"github.com/ragline/ragline/internal/retry"
)

// Service is the search orchestrator.
type Service struct {
	repo     Repository
	embedder Embedder
	retry    retry.Config
	logger   *zap.Logger
}

// New creates a search service with the default retry budget.
func New(repo Repository, embedder Embedder, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		retry:    retry.DefaultConfig(),
		logger:   logger,
	}
}

// NewWithRetry creates a search service with an explicit retry budget.
func NewWithRetry(repo Repository, embedder Embedder, cfg retry.Config, logger *zap.Logger) *Service {
	s := New(repo, embedder, logger)
	s.retry = cfg
	return s
}

// Search runs one retrieval request. Both upstream calls are retried on
// transient failure; an empty result list is a valid outcome, never an error.
// The query text itself is never logged.
func (s *Service) Search(ctx context.Context, q search.Query) (search.Response, error) {
	start := time.Now()

	warnings := append([]string(nil), q.Warnings()...)

	emb, err := retry.Do(ctx, s.retry, s.logger, "embed_query",
		func(ctx context.Context) (domain.EmbeddingResult, error) {
			return s.embedder.Embed(ctx, q.Text())
		})
	if err != nil {
		return s.fail(q, start, "embedding provider", err)
	}

	hits, err := retry.Do(ctx, s.retry, s.logger, "vector_search",
		func(ctx context.Context) ([]search.Result, error) {
			return s.repo.SearchKNN(ctx, emb.Embedding, q.Limit(), q.Filter())
		})
	if err != nil {
		return s.fail(q, start, "vector store", err)
	}

	results, warnings := applyPolicy(q, hits, warnings)

	elapsed := time.Since(start)
	elapsedMS := float64(elapsed.Microseconds()) / 1000.0

	status := "ok"
	if len(results) == 0 {
		status = "empty"
	}
	metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
	metrics.SearchDuration.Observe(elapsed.Seconds())
	metrics.SearchResults.Observe(float64(len(results)))

	s.logger.Info("search completed",
		zap.Int("query_length", len(q.Text())),
		zap.Int("raw_hits", len(hits)),
		zap.Int("result_count", len(results)),
		zap.Float64("query_time_ms", elapsedMS),
	)

	return search.NewResponse(results, elapsedMS, warnings), nil
}

// applyPolicy filters raw hits through the caller's threshold, the fixed
// confidence bands, and the anchored URL-prefix re-check. Store order is
// preserved.
func applyPolicy(q search.Query, hits []search.Result, warnings []string) ([]search.Result, []string) {
	results := make([]search.Result, 0, len(hits))

	for _, hit := range hits {
		if hit.Score() < q.ScoreThreshold() {
			continue
		}

		band := search.Classify(hit.Score())
		if band == search.BandExcluded {
			continue
		}

		// The store's TAG prefix match is a pre-filter; anchor the prefix
		// semantics here so tokenization quirks can't leak through.
		if prefix := q.Filter().URLPrefix(); prefix != "" && !strings.HasPrefix(hit.SourceURL(), prefix) {
			continue
		}

		if band == search.BandLow {
			hit = hit.WithLowConfidence()
		}

		if fields := hit.MissingFields(); len(fields) > 0 {
			warnings = append(warnings, fmt.Sprintf(
				"result from %q is missing metadata fields: %s",
				hit.SourceURL(), strings.Join(fields, ", ")))
		}

		results = append(results, hit)
		if len(results) == q.Limit() {
			break
		}
	}

	return results, warnings
}

// fail wraps an upstream error, records metrics, and logs the failure.
// Permanent domain errors pass through untouched so transports can map them.
func (s *Service) fail(q search.Query, start time.Time, upstream string, err error) (search.Response, error) {
	metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	s.logger.Error("search failed",
		zap.Int("query_length", len(q.Text())),
		zap.String("upstream", upstream),
		zap.Error(err),
	)

	return search.Response{}, surface(upstream, err)
}

// surface attributes a failure to its upstream. Timeouts and transient
// failures carry the upstream name; invalid-input and missing-collection
// errors are already self-describing.
func surface(upstream string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrCollectionNotFound):
		return err
	case errors.Is(err, domain.ErrTimeout):
		return fmt.Errorf("%s: %w", upstream, err)
	case domain.IsTransient(err):
		return domain.NewUpstreamError(upstream, err)
	default:
		return fmt.Errorf("%s: %w", upstream, err)
	}
}
