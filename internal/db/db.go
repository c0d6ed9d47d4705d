// Package db defines the vector store contract consumed by the retrieval
// layers. The concrete backend lives in db/redis; consumers depend on the
// narrow sub-interfaces only.
package db

import (
	"context"
	"time"

	"github.com/ragline/ragline/internal/domain/search"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	Searcher
	IndexManager
	Sampler
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KNNQuery describes a single vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	Filter       search.Filter
	ReturnFields []string
}

// SearchEntry is one raw hit: the storage key, the similarity score, and the
// returned payload fields.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is the raw outcome of an FT.SEARCH call.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// Searcher provides vector search over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// IndexInfo is the raw FT.INFO snapshot of an index.
type IndexInfo struct {
	NumDocs              int64
	Indexing             bool
	PercentIndexed       float64
	HashIndexingFailures int64
	InvertedBlocks       int64
	InvertedSizeBytes    int64
	DocTableSizeBytes    int64
	VectorIndexSizeBytes int64
}

// IndexManager provides FT index lifecycle and introspection operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Info(ctx context.Context, name string) (*IndexInfo, error)
}

// Sampler provides key scanning and bulk hash reads for metadata sampling.
type Sampler interface {
	Scan(ctx context.Context, pattern string, limit int) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}
