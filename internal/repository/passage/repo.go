// Package passage maps raw vector store entries onto the retrieval domain
// model and translates store failures into the domain error taxonomy.
package passage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ragline/ragline/internal/db"
	"github.com/ragline/ragline/internal/domain"
	"github.com/ragline/ragline/internal/domain/search"
)

// store is the consumer interface for passage operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Info(ctx context.Context, name string) (*db.IndexInfo, error)
	Scan(ctx context.Context, pattern string, limit int) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo reads indexed passages from the vector store.
type Repo struct {
	store      store
	collection string
	keyPrefix  string
	dimensions int
}

// New creates a passage repository.
func New(s store, collection, keyPrefix string, dimensions int) *Repo {
	return &Repo{store: s, collection: collection, keyPrefix: keyPrefix, dimensions: dimensions}
}

// IndexName returns the FT index name for the passage collection.
func (r *Repo) IndexName() string {
	return fmt.Sprintf("%s%s:idx", r.keyPrefix, r.collection)
}

func (r *Repo) keyPattern() string {
	return fmt.Sprintf("%s%s:*", r.keyPrefix, r.collection)
}

// SearchKNN performs a filtered vector similarity search and maps hits into
// domain results, preserving the store's score-descending order.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, k int, filter search.Filter,
) ([]search.Result, error) {
	q := &db.KNNQuery{
		IndexName:    r.IndexName(),
		Vector:       vector,
		K:            k,
		Filter:       filter,
		ReturnFields: search.RequiredFields(),
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	results := make([]search.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		results = append(results, resultFromEntry(entry))
	}
	return results, nil
}

// Stats returns a point-in-time snapshot of the passage collection.
func (r *Repo) Stats(ctx context.Context) (search.CollectionStats, error) {
	info, err := r.store.Info(ctx, r.IndexName())
	if err != nil {
		return search.CollectionStats{}, mapStoreErr(err)
	}

	status := search.IndexHealthy
	if info.Indexing || info.HashIndexingFailures > 0 {
		status = search.IndexDegraded
	}
	if info.NumDocs > 0 && info.PercentIndexed == 0 {
		status = search.IndexUnhealthy
	}

	indexed := info.NumDocs
	if info.PercentIndexed > 0 && info.PercentIndexed < 1 {
		indexed = int64(math.Round(info.PercentIndexed * float64(info.NumDocs)))
	}

	return search.CollectionStats{
		VectorCount:   info.NumDocs,
		Dimensions:    r.dimensions,
		IndexStatus:   status,
		IndexedCount:  indexed,
		SegmentCount:  info.InvertedBlocks,
		DiskSizeBytes: info.InvertedSizeBytes + info.DocTableSizeBytes,
		RAMSizeBytes:  info.VectorIndexSizeBytes,
	}, nil
}

// SampleCompleteness samples up to sampleSize stored passages and returns the
// percentage whose required payload fields are all present. Presence is a
// hash-field existence check, never a truthiness check: a chunk_position of
// "0" or an empty section string counts as present.
func (r *Repo) SampleCompleteness(ctx context.Context, sampleSize int) (float64, error) {
	keys, err := r.store.Scan(ctx, r.keyPattern(), sampleSize)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return 0, mapStoreErr(err)
	}

	required := search.RequiredFields()
	complete := 0
	for _, fields := range hashes {
		ok := true
		for _, name := range required {
			if _, present := fields[name]; !present {
				ok = false
				break
			}
		}
		if ok {
			complete++
		}
	}

	return float64(complete) / float64(len(hashes)) * 100.0, nil
}

// resultFromEntry builds a domain result from a raw hit, recording which
// payload fields the stored passage is missing.
func resultFromEntry(entry db.SearchEntry) search.Result {
	var missing []string

	get := func(name string) string {
		v, ok := entry.Fields[name]
		if !ok {
			missing = append(missing, name)
		}
		return v
	}

	chunkText := get(search.FieldChunkText)
	sourceURL := get(search.FieldSourceURL)
	title := get(search.FieldTitle)
	section := get(search.FieldSection)

	var position int
	if v, ok := entry.Fields[search.FieldChunkPosition]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			position = n
		} else {
			missing = append(missing, search.FieldChunkPosition)
		}
	} else {
		missing = append(missing, search.FieldChunkPosition)
	}

	return search.NewResult(entry.Score, chunkText, sourceURL, title, section, position, missing)
}

// mapStoreErr translates db layer failures into the domain error taxonomy.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, db.ErrIndexNotFound):
		return domain.ErrCollectionNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("vector store: %w", domain.ErrTimeout)
	default:
		return fmt.Errorf("vector store: %v: %w", err, domain.ErrUnavailable)
	}
}
