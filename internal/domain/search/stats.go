package search

// IndexHealth is the tri-state health of the passage index.
type IndexHealth string

const (
	// IndexHealthy indicates a fully built index with no failures.
	IndexHealthy IndexHealth = "healthy"
	// IndexDegraded indicates indexing in progress or partial failures.
	IndexDegraded IndexHealth = "degraded"
	// IndexUnhealthy indicates the index is unusable.
	IndexUnhealthy IndexHealth = "unhealthy"
)

// CollectionStats is a point-in-time snapshot of vector store health.
// Recomputed on every call, never cached.
type CollectionStats struct {
	VectorCount   int64
	Dimensions    int
	IndexStatus   IndexHealth
	IndexedCount  int64
	SegmentCount  int64
	DiskSizeBytes int64
	RAMSizeBytes  int64
}
