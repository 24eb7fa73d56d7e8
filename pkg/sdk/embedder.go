package ragsearch

import "context"

// Embedder converts a query to a vector embedding.
// Without one, every search is answered by keyword search.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Reranker scores documents against a query.
// Each hit points into the documents slice by Index.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankHit, error)
}

// RerankHit is one scored document.
type RerankHit struct {
	Index          int
	RelevanceScore float64
}
