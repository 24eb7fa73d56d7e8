package search

import (
	"context"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/result"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorSearcher runs the similarity query against the content store.
type VectorSearcher interface {
	SearchVector(ctx context.Context, vector []float32, threshold float64, limit int) ([]result.Result, error)
}

// TextSearcher runs the keyword query against the content store.
type TextSearcher interface {
	SearchText(ctx context.Context, query string, limit int) ([]result.Result, error)
}

// Reranker scores documents against a query. Hit indices point into documents.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]domain.RerankHit, error)
}
