package domain

import "context"

// DefaultEmbeddingModel is the embedding model the content store was indexed with.
const DefaultEmbeddingModel = "text-embedding-ada-002"

// DefaultEmbeddingDimensions matches the vector(1536) column of the content store.
const DefaultEmbeddingDimensions = 1536

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the query vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
