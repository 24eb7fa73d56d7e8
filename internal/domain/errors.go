package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty or oversized search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUpstreamUnavailable signals an embedding provider failure.
	ErrUpstreamUnavailable = errors.New("embedding provider unavailable")
	// ErrSearchBackend signals a vector search failure. Recoverable via text search.
	ErrSearchBackend = errors.New("vector search backend error")
	// ErrSearchUnavailable signals that text search failed too. Fatal for the request.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrRerankFailure signals a reranking provider failure. Never surfaced to callers.
	ErrRerankFailure = errors.New("rerank failed")
)
