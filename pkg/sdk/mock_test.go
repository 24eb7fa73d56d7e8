package ragsearch

import (
	"context"

	"github.com/kailas-cloud/ragsearch/internal/domain/search/outcome"
)

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockReranker struct {
	fn func(ctx context.Context, query string, documents []string, topK int) ([]RerankHit, error)
}

func (m *mockReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankHit, error) {
	return m.fn(ctx, query, documents, topK)
}

type mockSearchUC struct {
	searchFn func(ctx context.Context, query string) outcome.Outcome
}

func (m *mockSearchUC) Search(ctx context.Context, query string) outcome.Outcome {
	return m.searchFn(ctx, query)
}

// fixedEmbedder always returns vec.
func fixedEmbedder(vec ...float32) *mockEmbedder {
	return &mockEmbedder{fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
		return EmbeddingResult{Embedding: vec, TotalTokens: 2}, nil
	}}
}

func testRecords() []Record {
	return []Record{
		{ID: "r1", Content: "급식 식단표 안내", Category: "급식", Tags: []string{"급식"}, Embedding: []float32{1, 0, 0}},
		{ID: "r2", Content: "급식 알레르기 정보", Category: "급식", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "r3", Content: "기말고사 일정", Category: "학사", Embedding: []float32{0, 1, 0}},
	}
}
