package search

// Response is the complete answer to one query. An empty result list is a
// valid outcome ("no confident match"), never an error.
type Response struct {
	results     []Result
	queryTimeMS float64
	warnings    []string
}

// NewResponse assembles a response. Results must already be ordered by
// descending score (the vector store's stable order is preserved for ties).
func NewResponse(results []Result, queryTimeMS float64, warnings []string) Response {
	return Response{results: results, queryTimeMS: queryTimeMS, warnings: warnings}
}

// Results returns the ordered results.
func (r Response) Results() []Result { return r.results }

// TotalResults returns the result count.
func (r Response) TotalResults() int { return len(r.results) }

// QueryTimeMillis returns elapsed wall-clock processing time.
func (r Response) QueryTimeMillis() float64 { return r.queryTimeMS }

// Warnings returns non-fatal warnings accumulated during the search.
func (r Response) Warnings() []string { return r.warnings }
