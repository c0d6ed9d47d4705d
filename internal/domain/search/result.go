package search

// Metadata field names carried by every indexed passage. Shared with the
// ingestion pipeline's payload contract.
const (
	FieldSourceURL     = "source_url"
	FieldTitle         = "title"
	FieldSection       = "section"
	FieldChunkPosition = "chunk_position"
	FieldChunkText     = "chunk_text"
)

// RequiredFields lists the payload fields every passage must carry.
func RequiredFields() []string {
	return []string{FieldSourceURL, FieldTitle, FieldSection, FieldChunkPosition, FieldChunkText}
}

// Result is a single retrieved passage with full source attribution.
type Result struct {
	score         float64
	chunkText     string
	sourceURL     string
	title         string
	section       string
	chunkPosition int
	lowConfidence bool
	missing       []string
}

// NewResult creates a search result. missing names the payload fields absent
// from the stored passage; a chunk position of 0 is a present value, absence
// is tracked here instead.
func NewResult(
	score float64, chunkText, sourceURL, title, section string,
	chunkPosition int, missing []string,
) Result {
	return Result{
		score:         score,
		chunkText:     chunkText,
		sourceURL:     sourceURL,
		title:         title,
		section:       section,
		chunkPosition: chunkPosition,
		missing:       missing,
	}
}

// Score returns the cosine similarity score in [0.0, 1.0].
func (r Result) Score() float64 { return r.score }

// ChunkText returns the passage text.
func (r Result) ChunkText() string { return r.chunkText }

// SourceURL returns the source document URL.
func (r Result) SourceURL() string { return r.sourceURL }

// Title returns the source document title.
func (r Result) Title() string { return r.title }

// Section returns the section name within the source document.
func (r Result) Section() string { return r.section }

// ChunkPosition returns the passage position within its document.
func (r Result) ChunkPosition() int { return r.chunkPosition }

// LowConfidence reports whether the score fell in the low-confidence band.
func (r Result) LowConfidence() bool { return r.lowConfidence }

// MissingFields returns the payload fields absent from the stored passage.
func (r Result) MissingFields() []string { return r.missing }

// WithLowConfidence returns a copy flagged as low-confidence.
func (r Result) WithLowConfidence() Result {
	r.lowConfidence = true
	return r
}
