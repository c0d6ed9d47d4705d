package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/domain"
	"github.com/ragline/ragline/internal/domain/search"
	"github.com/ragline/ragline/internal/retry"
)

// --- Mocks ---

type mockRepo struct {
	results    []search.Result
	err        error
	calls      int
	lastK      int
	lastFilter search.Filter
}

func (m *mockRepo) SearchKNN(
	_ context.Context, _ []float32, k int, filter search.Filter,
) ([]search.Result, error) {
	m.calls++
	m.lastK = k
	m.lastFilter = filter
	return m.results, m.err
}

type mockEmbedder struct {
	vec      []float32
	err      error
	calls    int
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1.0}
}

func newTestService(repo *mockRepo, embed *mockEmbedder) *Service {
	return NewWithRetry(repo, embed, fastRetry(), zap.NewNop())
}

func mustQuery(t *testing.T, text string, limit int, threshold float64, f search.Filter) search.Query {
	t.Helper()
	q, err := search.New(text, limit, threshold, f)
	if err != nil {
		t.Fatalf("search.New: %v", err)
	}
	return q
}

func result(score float64, url string) search.Result {
	return search.NewResult(score, "text", url, "title", "section", 0, nil)
}

// --- Tests ---

func TestSearch_Success(t *testing.T) {
	repo := &mockRepo{results: []search.Result{
		result(0.9, "https://example.com/docs/a"),
		result(0.7, "https://example.com/docs/b"),
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	svc := newTestService(repo, embed)

	q := mustQuery(t, "inverse kinematics", 5, 0.5, search.Filter{})
	resp, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalResults() != 2 {
		t.Fatalf("expected 2 results, got %d", resp.TotalResults())
	}
	if embed.calls != 1 {
		t.Errorf("expected 1 embed call, got %d", embed.calls)
	}
	if embed.lastText != "inverse kinematics" {
		t.Errorf("unexpected embedded text: %q", embed.lastText)
	}
	if repo.lastK != 5 {
		t.Errorf("unexpected K: %d", repo.lastK)
	}
}

func TestSearch_ThresholdFiltersResults(t *testing.T) {
	repo := &mockRepo{results: []search.Result{
		result(0.9, "u1"),
		result(0.55, "u2"),
		result(0.4, "u3"), // below caller threshold
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	q := mustQuery(t, "query", 5, 0.5, search.Filter{})
	resp, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalResults() != 2 {
		t.Errorf("expected 2 results above threshold, got %d", resp.TotalResults())
	}
}

func TestSearch_ConfidenceFloorAlwaysApplies(t *testing.T) {
	repo := &mockRepo{results: []search.Result{
		result(0.6, "u1"),
		result(0.29, "u2"), // below floor even with threshold 0
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	q := mustQuery(t, "query", 5, 0.0, search.Filter{})
	resp, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalResults() != 1 {
		t.Fatalf("expected floor to drop sub-0.3 result, got %d", resp.TotalResults())
	}
}

func TestSearch_LowConfidenceFlagged(t *testing.T) {
	repo := &mockRepo{results: []search.Result{
		result(0.8, "u1"),
		result(0.35, "u2"),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	q := mustQuery(t, "query", 5, 0.0, search.Filter{})
	resp, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	results := resp.Results()
	if results[0].LowConfidence() {
		t.Error("high-confidence result must not be flagged")
	}
	if !results[1].LowConfidence() {
		t.Error("expected low-confidence flag on score in [0.3, 0.5)")
	}
}

func TestSearch_URLPrefixReCheck(t *testing.T) {
	// The store's TAG pre-filter is advisory; the orchestrator re-anchors
	// the prefix, dropping hits that merely contain it.
	repo := &mockRepo{results: []search.Result{
		result(0.9, "https://example.com/docs/ch1"),
		result(0.8, "https://mirror.io/https://example.com/docs/ch1"),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	f := search.NewFilter("https://example.com/docs", "")
	q := mustQuery(t, "query", 5, 0.5, f)
	resp, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalResults() != 1 {
		t.Fatalf("expected 1 anchored match, got %d", resp.TotalResults())
	}
	if resp.Results()[0].SourceURL() != "https://example.com/docs/ch1" {
		t.Errorf("unexpected result: %s", resp.Results()[0].SourceURL())
	}
}

func TestSearch_EmptyIsNotError(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	q := mustQuery(t, "out of domain", 5, 0.5, search.Filter{})
	resp, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("empty results must not be an error: %v", err)
	}
	if resp.TotalResults() != 0 {
		t.Errorf("expected 0 results, got %d", resp.TotalResults())
	}
}

func TestSearch_LimitTrims(t *testing.T) {
	repo := &mockRepo{results: []search.Result{
		result(0.9, "u1"), result(0.8, "u2"), result(0.7, "u3"),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	q := mustQuery(t, "query", 2, 0.5, search.Filter{})
	resp, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalResults() != 2 {
		t.Errorf("expected limit to cap results, got %d", resp.TotalResults())
	}
}

func TestSearch_MissingMetadataWarns(t *testing.T) {
	repo := &mockRepo{results: []search.Result{
		search.NewResult(0.9, "text", "u1", "", "s", 0, []string{search.FieldTitle}),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	q := mustQuery(t, "query", 5, 0.5, search.Filter{})
	resp, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalResults() != 1 {
		t.Fatal("incomplete result must still be returned")
	}
	if len(resp.Warnings()) != 1 {
		t.Fatalf("expected 1 warning, got %v", resp.Warnings())
	}
}

func TestSearch_EmbedderFailure(t *testing.T) {
	embed := &mockEmbedder{err: fmt.Errorf("provider down: %w", domain.ErrUnavailable)}
	repo := &mockRepo{}
	svc := newTestService(repo, embed)

	q := mustQuery(t, "query", 5, 0.5, search.Filter{})
	_, err := svc.Search(context.Background(), q)
	if err == nil {
		t.Fatal("expected error")
	}

	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Upstream != "embedding provider" {
		t.Errorf("unexpected upstream: %q", ue.Upstream)
	}
	if embed.calls != 3 {
		t.Errorf("transient failure should exhaust retries, got %d calls", embed.calls)
	}
	if repo.calls != 0 {
		t.Error("store must not be called after embedding failure")
	}
}

func TestSearch_StoreFailure(t *testing.T) {
	repo := &mockRepo{err: fmt.Errorf("store: %w", domain.ErrUnavailable)}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	q := mustQuery(t, "query", 5, 0.5, search.Filter{})
	_, err := svc.Search(context.Background(), q)

	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Upstream != "vector store" {
		t.Errorf("unexpected upstream: %q", ue.Upstream)
	}
	if repo.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", repo.calls)
	}
}

func TestSearch_CollectionMissingPassesThrough(t *testing.T) {
	repo := &mockRepo{err: domain.ErrCollectionNotFound}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	q := mustQuery(t, "query", 5, 0.5, search.Filter{})
	_, err := svc.Search(context.Background(), q)
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("missing collection must not retry, got %d calls", repo.calls)
	}
}

func TestSearch_TimeoutNamesUpstream(t *testing.T) {
	repo := &mockRepo{err: fmt.Errorf("knn: %w", domain.ErrTimeout)}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	q := mustQuery(t, "query", 5, 0.5, search.Filter{})
	_, err := svc.Search(context.Background(), q)
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

// staticRepo and staticEmbedder record nothing, so concurrent calls share no
// mutable state.
type staticRepo struct{ results []search.Result }

func (s *staticRepo) SearchKNN(context.Context, []float32, int, search.Filter) ([]search.Result, error) {
	return s.results, nil
}

type staticEmbedder struct{ vec []float32 }

func (s *staticEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

func TestSearch_ConcurrentCalls(t *testing.T) {
	repo := &staticRepo{results: []search.Result{
		result(0.9, "https://example.com/docs/a"),
		result(0.7, "https://example.com/docs/b"),
	}}
	svc := NewWithRetry(repo, &staticEmbedder{vec: []float32{0.1, 0.2}}, fastRetry(), zap.NewNop())

	q := mustQuery(t, "inverse kinematics", 5, 0.5, search.Filter{})

	const callers = 10
	errs := make(chan error, callers)

	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Search(context.Background(), q)
			if err != nil {
				errs <- err
				return
			}
			if resp.TotalResults() != 2 {
				errs <- fmt.Errorf("expected 2 results, got %d", resp.TotalResults())
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent search: %v", err)
	}
}

func TestSearch_TruncationWarningPropagates(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{0.1}})

	long := make([]byte, search.MaxQueryChars+1)
	for i := range long {
		long[i] = 'a'
	}
	q := mustQuery(t, string(long), 5, 0.5, search.Filter{})

	resp, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Warnings()) != 1 {
		t.Errorf("expected truncation warning, got %v", resp.Warnings())
	}
}
