// Package chi exposes the retrieval API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/domain"
	"github.com/ragline/ragline/internal/domain/search"
	logpkg "github.com/ragline/ragline/internal/logger"
	healthuc "github.com/ragline/ragline/internal/usecase/health"
	searchuc "github.com/ragline/ragline/internal/usecase/search"
	validateuc "github.com/ragline/ragline/internal/usecase/validate"
)

// API error codes.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeCollectionNotFound  = "collection_not_found"
	codeRateLimited         = "rate_limited"
	codeUpstreamTimeout     = "upstream_timeout"
	codeUpstreamUnavailable = "upstream_unavailable"
	codeInternalError       = "internal_error"
)

// errorResponse is the wire shape of every API error.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the retrieval API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	validate      *validateuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	searchSvc *searchuc.Service,
	healthSvc *healthuc.Service,
	validateSvc *validateuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   searchSvc,
		health:   healthSvc,
		validate: validateSvc,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, codeCollectionNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, codeUpstreamTimeout),
		sentinelHandler(domain.ErrUnavailable, http.StatusBadGateway, codeUpstreamUnavailable),
	}
	return s
}

// Mount registers the API routes on an existing router. The middleware
// chain (recovery, request ID, auth, metrics) is assembled by the caller.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/stats", s.Stats)
		r.Post("/validate", s.Validate)
	})
}

// searchRequest is the wire shape of POST /api/v1/search.
type searchRequest struct {
	Query          string         `json:"query"`
	Limit          *int           `json:"limit,omitempty"`
	ScoreThreshold *float64       `json:"score_threshold,omitempty"`
	Filters        *searchFilters `json:"filters,omitempty"`
}

type searchFilters struct {
	SourceURLPrefix string `json:"source_url_prefix,omitempty"`
	Section         string `json:"section,omitempty"`
}

type searchResultItem struct {
	SourceURL       string  `json:"source_url"`
	Title           string  `json:"title"`
	Section         string  `json:"section"`
	ChunkPosition   int     `json:"chunk_position"`
	ChunkText       string  `json:"chunk_text"`
	SimilarityScore float64 `json:"similarity_score"`
	LowConfidence   bool    `json:"low_confidence,omitempty"`
}

type searchResponse struct {
	Results      []searchResultItem `json:"results"`
	TotalResults int                `json:"total_results"`
	QueryTimeMS  float64            `json:"query_time_ms"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	limit := search.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	threshold := search.DefaultScoreThreshold
	if req.ScoreThreshold != nil {
		threshold = *req.ScoreThreshold
	}

	var filter search.Filter
	if req.Filters != nil {
		filter = search.NewFilter(req.Filters.SourceURLPrefix, req.Filters.Section)
	}

	q, err := search.New(req.Query, limit, threshold, filter)
	if err != nil {
		// Validation detail is caller input, safe to echo.
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]searchResultItem, 0, resp.TotalResults())
	for _, res := range resp.Results() {
		items = append(items, searchResultItem{
			SourceURL:       res.SourceURL(),
			Title:           res.Title(),
			Section:         res.Section(),
			ChunkPosition:   res.ChunkPosition(),
			ChunkText:       res.ChunkText(),
			SimilarityScore: res.Score(),
			LowConfidence:   res.LowConfidence(),
		})
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results:      items,
		TotalResults: resp.TotalResults(),
		QueryTimeMS:  resp.QueryTimeMillis(),
		Warnings:     resp.Warnings(),
	})
}

type statsResponse struct {
	VectorCount   int64  `json:"vector_count"`
	Dimensions    int    `json:"dimensions"`
	IndexStatus   string `json:"index_status"`
	IndexedCount  int64  `json:"indexed_count"`
	SegmentCount  int64  `json:"segment_count"`
	DiskSizeBytes int64  `json:"disk_size_bytes"`
	RAMSizeBytes  int64  `json:"ram_size_bytes"`
}

// Stats handles GET /api/v1/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.health.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		VectorCount:   stats.VectorCount,
		Dimensions:    stats.Dimensions,
		IndexStatus:   string(stats.IndexStatus),
		IndexedCount:  stats.IndexedCount,
		SegmentCount:  stats.SegmentCount,
		DiskSizeBytes: stats.DiskSizeBytes,
		RAMSizeBytes:  stats.RAMSizeBytes,
	})
}

// Validate handles POST /api/v1/validate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	report, err := s.validate.Run(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.StatusError {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrCollectionNotFound,
		domain.ErrRateLimited,
		domain.ErrTimeout,
		domain.ErrUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			var ue *domain.UpstreamError
			if errors.As(err, &ue) {
				return ue.Upstream + " unavailable"
			}
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// The request-scoped logger carries the request ID from the middleware chain.
	logpkg.FromContext(r.Context()).Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
