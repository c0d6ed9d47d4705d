// Package search holds the retrieval domain model: validated queries,
// scored results, response envelopes, filter intents, and the confidence
// policy layered on top of raw similarity scores.
package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ragline/ragline/internal/domain"
)

// Query constraints.
const (
	// MinLimit and MaxLimit bound the result count a caller may request.
	MinLimit = 1
	MaxLimit = 20
	// DefaultLimit is applied by the transport layer when a caller omits it.
	DefaultLimit = 5
	// DefaultScoreThreshold is the default minimum similarity score.
	DefaultScoreThreshold = 0.5
	// MaxQueryChars caps query length (~8000 tokens). Longer queries are
	// truncated with a warning, never rejected.
	MaxQueryChars = 32000
)

// Query is a validated search input. Construct via New; a zero Query is not valid.
type Query struct {
	text           string
	limit          int
	scoreThreshold float64
	filter         Filter
	warnings       []string
}

// New validates and creates a Query. Empty or whitespace-only text, a limit
// outside [MinLimit, MaxLimit], or a threshold outside [0.0, 1.0] fail with
// domain.ErrInvalidInput. Oversized text is truncated and a warning recorded.
func New(text string, limit int, scoreThreshold float64, filter Filter) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("%w: query text must not be empty or whitespace", domain.ErrInvalidInput)
	}
	if limit < MinLimit || limit > MaxLimit {
		return Query{}, fmt.Errorf("%w: limit must be between %d and %d, got %d",
			domain.ErrInvalidInput, MinLimit, MaxLimit, limit)
	}
	if scoreThreshold < 0.0 || scoreThreshold > 1.0 {
		return Query{}, fmt.Errorf("%w: score threshold must be between 0.0 and 1.0, got %g",
			domain.ErrInvalidInput, scoreThreshold)
	}

	var warnings []string
	if len(text) > MaxQueryChars {
		// Back up to a rune boundary so truncation never produces invalid UTF-8.
		cut := MaxQueryChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		warnings = append(warnings, fmt.Sprintf(
			"query truncated from %d to %d characters", len(text), cut))
		text = text[:cut]
	}

	return Query{
		text:           text,
		limit:          limit,
		scoreThreshold: scoreThreshold,
		filter:         filter,
		warnings:       warnings,
	}, nil
}

// Text returns the (possibly truncated) query text.
func (q Query) Text() string { return q.text }

// Limit returns the maximum number of results.
func (q Query) Limit() int { return q.limit }

// ScoreThreshold returns the caller's minimum similarity score.
func (q Query) ScoreThreshold() float64 { return q.scoreThreshold }

// Filter returns the metadata filter intents.
func (q Query) Filter() Filter { return q.filter }

// Warnings returns non-fatal validation warnings (e.g. truncation).
func (q Query) Warnings() []string { return q.warnings }
