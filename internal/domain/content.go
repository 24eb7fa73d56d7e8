package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxQueryRunes bounds a single search query.
const DefaultMaxQueryRunes = 1000

// ContentRecord is a unit of indexed school information. Read-only for the search pipeline.
type ContentRecord struct {
	ID       string
	Content  string
	Category string
	Tags     []string
}

// RerankHit is one entry of a reranking provider response.
// Index points into the documents slice that was submitted.
type RerankHit struct {
	Index          int
	RelevanceScore float64
}

// ValidateQuery trims the query and checks it is non-empty and at most maxRunes long.
// maxRunes <= 0 falls back to DefaultMaxQueryRunes.
func ValidateQuery(query string, maxRunes int) (string, error) {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxQueryRunes
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return "", fmt.Errorf("%w: query must not be empty", ErrInvalidQuery)
	}
	if !utf8.ValidString(q) {
		return "", fmt.Errorf("%w: query must be valid UTF-8", ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(q); n > maxRunes {
		return "", fmt.Errorf("%w: query is %d characters, max %d", ErrInvalidQuery, n, maxRunes)
	}
	return q, nil
}
