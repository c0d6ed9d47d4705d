package passage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ragline/ragline/internal/db"
	"github.com/ragline/ragline/internal/domain"
	"github.com/ragline/ragline/internal/domain/search"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchKNNFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	infoFn         func(ctx context.Context, name string) (*db.IndexInfo, error)
	scanFn         func(ctx context.Context, pattern string, limit int) ([]string, error)
	hGetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Info(ctx context.Context, name string) (*db.IndexInfo, error) {
	if m.infoFn != nil {
		return m.infoFn(ctx, name)
	}
	return &db.IndexInfo{}, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string, limit int) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern, limit)
	}
	return nil, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hGetAllMultiFn != nil {
		return m.hGetAllMultiFn(ctx, keys)
	}
	return nil, nil
}

func newTestRepo() (*Repo, *mockStore) {
	ms := &mockStore{}
	return New(ms, "book_passages", "ragline:", 1024), ms
}

func fullFields() map[string]string {
	return map[string]string{
		"source_url":     "https://example.com/docs/ch1",
		"title":          "Chapter 1",
		"section":        "Intro",
		"chunk_position": "0",
		"chunk_text":     "passage text",
	}
}

func TestIndexName(t *testing.T) {
	repo, _ := newTestRepo()
	if repo.IndexName() != "ragline:book_passages:idx" {
		t.Errorf("unexpected index name: %s", repo.IndexName())
	}
}

func TestSearchKNN_MapsFields(t *testing.T) {
	repo, ms := newTestRepo()

	var gotQuery *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		gotQuery = q
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{
				{Key: "ragline:book_passages:1", Score: 0.85, Fields: fullFields()},
			},
		}, nil
	}

	results, err := repo.SearchKNN(context.Background(), []float32{0.1}, 5, search.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery.IndexName != "ragline:book_passages:idx" {
		t.Errorf("unexpected index: %s", gotQuery.IndexName)
	}
	if gotQuery.K != 5 {
		t.Errorf("unexpected K: %d", gotQuery.K)
	}
	if len(gotQuery.ReturnFields) != 5 {
		t.Errorf("unexpected return fields: %v", gotQuery.ReturnFields)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Score() != 0.85 {
		t.Errorf("unexpected score: %g", r.Score())
	}
	if r.SourceURL() != "https://example.com/docs/ch1" {
		t.Errorf("unexpected url: %s", r.SourceURL())
	}
	if r.ChunkPosition() != 0 {
		t.Errorf("unexpected position: %d", r.ChunkPosition())
	}
	if len(r.MissingFields()) != 0 {
		t.Errorf("position 0 is a present value, missing: %v", r.MissingFields())
	}
}

func TestSearchKNN_TracksMissingFields(t *testing.T) {
	repo, ms := newTestRepo()

	fields := fullFields()
	delete(fields, "title")
	delete(fields, "chunk_position")

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total:   1,
			Entries: []db.SearchEntry{{Key: "k", Score: 0.7, Fields: fields}},
		}, nil
	}

	results, err := repo.SearchKNN(context.Background(), []float32{0.1}, 5, search.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	missing := results[0].MissingFields()
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", missing)
	}
}

func TestSearchKNN_EmptyIsNotError(t *testing.T) {
	repo, _ := newTestRepo()

	results, err := repo.SearchKNN(context.Background(), []float32{0.1}, 5, search.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
}

func TestSearchKNN_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{"index_missing", db.ErrIndexNotFound, domain.ErrCollectionNotFound},
		{"deadline", fmt.Errorf("op: %w", context.DeadlineExceeded), domain.ErrTimeout},
		{"other", errors.New("connection refused"), domain.ErrUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, ms := newTestRepo()
			ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
				return nil, tc.storeErr
			}

			_, err := repo.SearchKNN(context.Background(), []float32{0.1}, 5, search.Filter{})
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStats_Healthy(t *testing.T) {
	repo, ms := newTestRepo()
	ms.infoFn = func(_ context.Context, _ string) (*db.IndexInfo, error) {
		return &db.IndexInfo{
			NumDocs:              12,
			Indexing:             false,
			PercentIndexed:       1.0,
			InvertedBlocks:       7,
			InvertedSizeBytes:    1000,
			DocTableSizeBytes:    500,
			VectorIndexSizeBytes: 2000,
		}, nil
	}

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.VectorCount != 12 {
		t.Errorf("unexpected vector count: %d", stats.VectorCount)
	}
	if stats.IndexStatus != search.IndexHealthy {
		t.Errorf("expected healthy, got %s", stats.IndexStatus)
	}
	if stats.IndexedCount != 12 {
		t.Errorf("expected all docs indexed, got %d", stats.IndexedCount)
	}
	if stats.Dimensions != 1024 {
		t.Errorf("unexpected dimensions: %d", stats.Dimensions)
	}
	if stats.DiskSizeBytes != 1500 {
		t.Errorf("unexpected disk size: %d", stats.DiskSizeBytes)
	}
	if stats.RAMSizeBytes != 2000 {
		t.Errorf("unexpected ram size: %d", stats.RAMSizeBytes)
	}
}

func TestStats_DegradedWhileIndexing(t *testing.T) {
	repo, ms := newTestRepo()
	ms.infoFn = func(_ context.Context, _ string) (*db.IndexInfo, error) {
		return &db.IndexInfo{NumDocs: 10, Indexing: true, PercentIndexed: 0.5}, nil
	}

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.IndexStatus != search.IndexDegraded {
		t.Errorf("expected degraded, got %s", stats.IndexStatus)
	}
	if stats.IndexedCount != 5 {
		t.Errorf("expected 5 indexed, got %d", stats.IndexedCount)
	}
}

func TestStats_IndexMissing(t *testing.T) {
	repo, ms := newTestRepo()
	ms.infoFn = func(_ context.Context, _ string) (*db.IndexInfo, error) {
		return nil, db.ErrIndexNotFound
	}

	_, err := repo.Stats(context.Background())
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Errorf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestSampleCompleteness_AllComplete(t *testing.T) {
	repo, ms := newTestRepo()
	ms.scanFn = func(_ context.Context, pattern string, limit int) ([]string, error) {
		if pattern != "ragline:book_passages:*" {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		if limit != 100 {
			t.Errorf("unexpected limit: %d", limit)
		}
		return []string{"k1", "k2"}, nil
	}
	ms.hGetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{fullFields(), fullFields()}, nil
	}

	pct, err := repo.SampleCompleteness(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pct != 100.0 {
		t.Errorf("expected 100%%, got %g", pct)
	}
}

func TestSampleCompleteness_PresenceNotTruthiness(t *testing.T) {
	repo, ms := newTestRepo()
	ms.scanFn = func(_ context.Context, _ string, _ int) ([]string, error) {
		return []string{"k1", "k2"}, nil
	}

	// One hash carries zero-ish but present values; the other genuinely
	// lacks a field.
	present := fullFields()
	present["chunk_position"] = "0"
	present["section"] = ""

	absent := fullFields()
	delete(absent, "chunk_text")

	ms.hGetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{present, absent}, nil
	}

	pct, err := repo.SampleCompleteness(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pct != 50.0 {
		t.Errorf("expected 50%%, got %g", pct)
	}
}

func TestSampleCompleteness_EmptyCollection(t *testing.T) {
	repo, _ := newTestRepo()

	pct, err := repo.SampleCompleteness(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pct != 0.0 {
		t.Errorf("expected 0%%, got %g", pct)
	}
}
