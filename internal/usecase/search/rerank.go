package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/result"
)

var errMalformedRerank = errors.New("malformed rerank response")

// applyRerank submits candidate contents to the reranker and maps the returned indices
// back onto copies of the candidates, in provider order, truncated to topK.
// candidates is never modified. Every error wraps domain.ErrRerankFailure.
func applyRerank(
	ctx context.Context, r Reranker, query string, candidates []result.Result, topK int,
) ([]result.Result, error) {
	docs := make([]string, len(candidates))
	for i := range candidates {
		docs[i] = candidates[i].Content()
	}

	hits, err := r.Rerank(ctx, query, docs, topK)
	if err != nil {
		if errors.Is(err, domain.ErrRerankFailure) {
			return nil, fmt.Errorf("rerank: %w", err)
		}
		return nil, fmt.Errorf("rerank: %w: %w", domain.ErrRerankFailure, err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: %w: no results", domain.ErrRerankFailure, errMalformedRerank)
	}

	seen := make(map[int]struct{}, len(hits))
	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		if h.Index < 0 || h.Index >= len(candidates) {
			return nil, fmt.Errorf("%w: %w: index %d out of range [0,%d)",
				domain.ErrRerankFailure, errMalformedRerank, h.Index, len(candidates))
		}
		if _, dup := seen[h.Index]; dup {
			return nil, fmt.Errorf("%w: %w: duplicate index %d",
				domain.ErrRerankFailure, errMalformedRerank, h.Index)
		}
		seen[h.Index] = struct{}{}
		out = append(out, candidates[h.Index].WithRelevance(h.RelevanceScore))
	}

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func rerankReason(err error) string {
	if errors.Is(err, errMalformedRerank) {
		return reasonRerankMalformed
	}
	return reasonRerankProvider
}
