package cohere

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

func TestRerank_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/rerank", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req rerankRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, "급식 식단", req.Query)
		assert.Equal(t, []string{"c0", "c1", "c2"}, req.Documents)
		assert.Equal(t, 5, req.TopK)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","results":[
			{"index":2,"relevance_score":0.95},
			{"index":0,"relevance_score":0.80},
			{"index":1,"relevance_score":0.55}]}`))
	}))
	defer server.Close()

	rr := NewReranker(&Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	hits, err := rr.Rerank(context.Background(), "급식 식단", []string{"c0", "c1", "c2"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, domain.RerankHit{Index: 2, RelevanceScore: 0.95}, hits[0])
	assert.Equal(t, domain.RerankHit{Index: 0, RelevanceScore: 0.80}, hits[1])
	assert.Equal(t, domain.RerankHit{Index: 1, RelevanceScore: 0.55}, hits[2])
}

func TestRerank_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	hits, err := NewReranker(&Config{APIKey: "k", BaseURL: server.URL}).
		Rerank(context.Background(), "q", []string{"a"}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRerank_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api token"}`))
	}))
	defer server.Close()

	_, err := NewReranker(&Config{APIKey: "bad", BaseURL: server.URL}).
		Rerank(context.Background(), "q", []string{"a"}, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRerankFailure))
	assert.Contains(t, err.Error(), "401")
}

func TestRerank_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := NewReranker(&Config{APIKey: "k", BaseURL: server.URL}).
		Rerank(context.Background(), "q", []string{"a"}, 5)
	assert.ErrorIs(t, err, domain.ErrRerankFailure)
}

func TestRerank_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewReranker(&Config{APIKey: "k", BaseURL: server.URL}).
		Rerank(ctx, "q", []string{"a"}, 5)
	assert.ErrorIs(t, err, domain.ErrRerankFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewReranker_Defaults(t *testing.T) {
	rr := NewReranker(&Config{APIKey: "k"})
	assert.Equal(t, DefaultModel, rr.ModelName())
	assert.Equal(t, DefaultBaseURL+"/v1/rerank", rr.endpoint)
}
