package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()

	SearchRequestsTotal.WithLabelValues("vector_search", "success").Inc()
	if got := testutil.ToFloat64(SearchRequestsTotal.WithLabelValues("vector_search", "success")); got < 1 {
		t.Errorf("expected search_requests_total >= 1, got %f", got)
	}
}

func TestRegisterEmbeddingMetrics_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()

	EmbeddingCacheTotal.WithLabelValues("hit").Inc()
	if got := testutil.ToFloat64(EmbeddingCacheTotal.WithLabelValues("hit")); got < 1 {
		t.Errorf("expected embedding_cache_total >= 1, got %f", got)
	}
}
