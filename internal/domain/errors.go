package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals malformed caller input. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTimeout signals that an external call exceeded its bounded wait.
	ErrTimeout = errors.New("operation timed out")
	// ErrUnavailable signals an unreachable or failing upstream.
	ErrUnavailable = errors.New("service unavailable")
	// ErrCollectionNotFound signals that the passage collection does not exist.
	// The ingestion pipeline must create it before retrieval can function.
	ErrCollectionNotFound = errors.New(
		"collection not found: run the ingestion pipeline to create and populate it")
	// ErrRateLimited signals a provider rate limit. Transient, retried with backoff.
	ErrRateLimited = errors.New("rate limited")
)

// IsTransient reports whether err is worth retrying: timeouts, rate limits,
// and connection-level upstream failures. Validation errors and missing
// collections propagate immediately.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable)
}

// UpstreamError wraps ErrUnavailable with the name of the upstream that
// failed, so callers can tell an embedding-provider outage from a vector
// store outage.
type UpstreamError struct {
	Upstream string // "embedding provider" or "vector store"
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Upstream, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUnavailable, e.Err} }

// NewUpstreamError creates an UpstreamError for the named upstream.
func NewUpstreamError(upstream string, err error) error {
	return &UpstreamError{Upstream: upstream, Err: err}
}
