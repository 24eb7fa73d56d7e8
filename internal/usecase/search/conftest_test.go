package search

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/result"
)

// --- Mocks ---

type mockEmbedder struct {
	vec   []float32
	err   error
	block bool
	calls int
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return domain.EmbeddingResult{}, ctx.Err()
	}
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

type mockVectors struct {
	results       []result.Result
	err           error
	calls         int
	lastThreshold float64
	lastLimit     int
}

func (m *mockVectors) SearchVector(
	_ context.Context, _ []float32, threshold float64, limit int,
) ([]result.Result, error) {
	m.calls++
	m.lastThreshold = threshold
	m.lastLimit = limit
	return m.results, m.err
}

type mockTexts struct {
	results   []result.Result
	err       error
	calls     int
	lastQuery string
	lastLimit int
}

func (m *mockTexts) SearchText(_ context.Context, query string, limit int) ([]result.Result, error) {
	m.calls++
	m.lastQuery = query
	m.lastLimit = limit
	return m.results, m.err
}

type mockReranker struct {
	hits     []domain.RerankHit
	err      error
	calls    int
	lastDocs []string
	lastTopK int
}

func (m *mockReranker) Rerank(_ context.Context, _ string, documents []string, topK int) ([]domain.RerankHit, error) {
	m.calls++
	m.lastDocs = documents
	m.lastTopK = topK
	return m.hits, m.err
}

// --- Fixtures ---

type fixture struct {
	embed   *mockEmbedder
	vectors *mockVectors
	texts   *mockTexts
	rerank  *mockReranker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		embed:   &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}},
		vectors: &mockVectors{},
		texts:   &mockTexts{},
		rerank:  &mockReranker{},
	}
}

// service builds a Service; withRerank=false leaves the reranker nil (not a typed nil).
func (f *fixture) service(withRerank bool) *Service {
	svc := New(f.embed, f.vectors, f.texts, zap.NewNop())
	if withRerank {
		svc = svc.WithReranker(f.rerank)
	}
	return svc
}

func (f *fixture) outboundCalls() int {
	return f.embed.calls + f.vectors.calls + f.texts.calls + f.rerank.calls
}

func candidate(i int, sim float64) result.Result {
	return result.WithSimilarity(domain.ContentRecord{
		ID:       fmt.Sprintf("c%d", i),
		Content:  fmt.Sprintf("급식 안내 %d", i),
		Category: "급식",
		Tags:     []string{"급식"},
	}, sim)
}

func textHit(id, content string) result.Result {
	return result.FromRecord(domain.ContentRecord{ID: id, Content: content, Tags: []string{}})
}
