package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

const (
	// DefaultBaseURL is the public Cohere API endpoint.
	DefaultBaseURL = "https://api.cohere.ai"
	// DefaultModel handles Korean queries.
	DefaultModel = "rerank-multilingual-v2.0"

	maxErrorBody = 4 << 10
)

// Config holds the rerank provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Reranker scores documents against a query via the Cohere rerank API.
type Reranker struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
}

// NewReranker creates a Cohere rerank client.
func NewReranker(cfg *Config) *Reranker {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Reranker{
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimRight(base, "/") + "/v1/rerank",
		model:    model,
		client:   client,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      int      `json:"top_k"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank returns hits ordered as the provider returned them. Index points into documents.
// All failures wrap domain.ErrRerankFailure.
func (r *Reranker) Rerank(
	ctx context.Context, query string, documents []string, topK int,
) ([]domain.RerankHit, error) {
	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopK:      topK,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w: %w", err, domain.ErrRerankFailure)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new rerank request: %w: %w", err, domain.ErrRerankFailure)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w: %w", err, domain.ErrRerankFailure)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("rerank API status %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(msg)), domain.ErrRerankFailure)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w: %w", err, domain.ErrRerankFailure)
	}

	hits := make([]domain.RerankHit, len(parsed.Results))
	for i, res := range parsed.Results {
		hits[i] = domain.RerankHit{Index: res.Index, RelevanceScore: res.RelevanceScore}
	}
	return hits, nil
}

// ModelName returns the configured rerank model.
func (r *Reranker) ModelName() string {
	return r.model
}
