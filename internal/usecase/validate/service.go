// Package validate runs the golden query suite against the live retrieval
// pipeline and reports whether it still returns the passages it should.
package validate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/domain/search"
	"github.com/ragline/ragline/internal/metrics"
)

// fixtureLimit is how many top results each fixture query inspects.
const fixtureLimit = 5

// QueryFailure describes one fixture that did not pass.
type QueryFailure struct {
	Query      string      `json:"query"`
	Reason     string      `json:"reason"`
	TopResults []TopResult `json:"top_results,omitempty"`
}

// TopResult is a compact view of a returned passage for failure reports.
type TopResult struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// Report is the outcome of one validation run.
type Report struct {
	Passed               bool           `json:"passed"`
	TotalQueries         int            `json:"total_queries"`
	PassedQueries        int            `json:"passed_queries"`
	FailedQueries        []QueryFailure `json:"failed_queries"`
	VectorCount          int64          `json:"vector_count"`
	MetadataCompleteness float64        `json:"metadata_completeness"`
}

// Service runs golden-set validation.
type Service struct {
	searcher   Searcher
	stats      StatsProvider
	sampler    Sampler
	sampleSize int
	logger     *zap.Logger
}

// New creates a validation service. sampleSize bounds the metadata
// completeness sample.
func New(searcher Searcher, stats StatsProvider, sampler Sampler, sampleSize int, logger *zap.Logger) *Service {
	return &Service{
		searcher:   searcher,
		stats:      stats,
		sampler:    sampler,
		sampleSize: sampleSize,
		logger:     logger,
	}
}

// Run executes every golden query plus the negative fixture and aggregates
// the outcome. The suite passes when at least 4 of 5 golden queries pass AND
// the negative fixture passes. An empty collection fails immediately without
// running queries.
func (s *Service) Run(ctx context.Context) (Report, error) {
	golden := GoldenSet()
	total := len(golden) + 1

	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("collection stats: %w", err)
	}

	if stats.VectorCount == 0 {
		s.logger.Warn("validation skipped: collection is empty")
		metrics.ValidationRunsTotal.WithLabelValues("failed").Inc()
		return Report{
			TotalQueries:  total,
			FailedQueries: []QueryFailure{{Query: "all", Reason: "collection is empty"}},
		}, nil
	}

	completeness, err := s.sampler.SampleCompleteness(ctx, s.sampleSize)
	if err != nil {
		return Report{}, fmt.Errorf("metadata completeness: %w", err)
	}

	var failures []QueryFailure
	passed := 0

	for _, fixture := range golden {
		ok, failure := s.runGolden(ctx, fixture)
		if ok {
			passed++
		} else {
			failures = append(failures, failure)
		}
	}
	goldenPassed := passed

	negativeOK, failure := s.runNegative(ctx)
	if negativeOK {
		passed++
	} else {
		failures = append(failures, failure)
	}

	overall := goldenPassed >= minGoldenPasses && negativeOK

	outcome := "failed"
	if overall {
		outcome = "passed"
	}
	metrics.ValidationRunsTotal.WithLabelValues(outcome).Inc()

	s.logger.Info("validation finished",
		zap.Bool("passed", overall),
		zap.Int("passed_queries", passed),
		zap.Int("total_queries", total),
		zap.Int64("vector_count", stats.VectorCount),
		zap.Float64("metadata_completeness", completeness),
	)

	return Report{
		Passed:               overall,
		TotalQueries:         total,
		PassedQueries:        passed,
		FailedQueries:        failures,
		VectorCount:          stats.VectorCount,
		MetadataCompleteness: completeness,
	}, nil
}

// runGolden passes when ANY top result matches one of the fixture's URL
// patterns with a score at or above the fixture minimum.
func (s *Service) runGolden(ctx context.Context, fixture GoldenQuery) (bool, QueryFailure) {
	resp, err := s.search(ctx, fixture.Text)
	if err != nil {
		return false, QueryFailure{Query: fixture.Text, Reason: fmt.Sprintf("error: %v", err)}
	}

	for _, r := range resp.Results() {
		if r.Score() < fixture.MinScore {
			continue
		}
		for _, pattern := range fixture.URLPatterns {
			if containsPattern(r.SourceURL(), pattern) {
				return true, QueryFailure{}
			}
		}
	}

	return false, QueryFailure{
		Query: fixture.Text,
		Reason: fmt.Sprintf("no results matching expected patterns with score >= %g",
			fixture.MinScore),
		TopResults: topResults(resp, 3),
	}
}

// runNegative passes when the out-of-domain query returns nothing, or nothing
// scoring at or above the fixture minimum.
func (s *Service) runNegative(ctx context.Context) (bool, QueryFailure) {
	fixture := NegativeQuery()

	resp, err := s.search(ctx, fixture.Text)
	if err != nil {
		return false, QueryFailure{Query: fixture.Text, Reason: fmt.Sprintf("error: %v", err)}
	}

	ok := true
	for _, r := range resp.Results() {
		if r.Score() >= fixture.MinScore {
			ok = false
			break
		}
	}
	if ok {
		return true, QueryFailure{}
	}

	return false, QueryFailure{
		Query:      fixture.Text,
		Reason:     "expected empty or low-confidence results for out-of-domain query",
		TopResults: topResults(resp, 3),
	}
}

// search runs a fixture query with no caller threshold; fixtures apply their
// own minimum scores.
func (s *Service) search(ctx context.Context, text string) (search.Response, error) {
	q, err := search.New(text, fixtureLimit, 0.0, search.Filter{})
	if err != nil {
		return search.Response{}, err
	}
	return s.searcher.Search(ctx, q)
}

func topResults(resp search.Response, n int) []TopResult {
	results := resp.Results()
	if len(results) > n {
		results = results[:n]
	}
	out := make([]TopResult, 0, len(results))
	for _, r := range results {
		out = append(out, TopResult{URL: r.SourceURL(), Score: r.Score()})
	}
	return out
}

func containsPattern(url, pattern string) bool {
	return pattern != "" && strings.Contains(url, pattern)
}
