package ragsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/db"
	"github.com/kailas-cloud/ragsearch/internal/db/memory"
	"github.com/kailas-cloud/ragsearch/internal/db/postgres"
	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/outcome"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/result"
	contentrepo "github.com/kailas-cloud/ragsearch/internal/repository/content"
	healthuc "github.com/kailas-cloud/ragsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/ragsearch/internal/usecase/search"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"

	defaultReadinessTimeout = 10 * time.Second
)

// searchUseCase is the internal interface for the pipeline, replaced in tests.
type searchUseCase interface {
	Search(ctx context.Context, query string) outcome.Outcome
}

// Client is the ragsearch SDK entry point. Safe for concurrent use.
type Client struct {
	store     db.ContentStore
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and waits for the content store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("ragsearch: content store required (use WithPostgres, WithSeedFile or WithRecords)")
	}
	if err := cfg.searchParams().Validate(); err != nil {
		return nil, fmt.Errorf("ragsearch: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ragsearch: database not ready: %w", err)
	}

	if mem, ok := store.(*memory.Store); ok && cfg.embedder != nil && mem.Missing() > 0 {
		fillEmbeddings(ctx, mem, cfg.embedder, obs)
	}

	return wireClient(store, cfg, obs), nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.ContentStore, error) {
	switch cfg.driver {
	case driverPostgres:
		s, err := postgres.NewStore(ctx, postgres.Config{
			DSN:           cfg.dsn,
			Table:         cfg.table,
			MatchFunction: cfg.matchFunction,
		})
		if err != nil {
			return nil, fmt.Errorf("ragsearch: create postgres store: %w", err)
		}
		return s, nil
	case driverMemory:
		if cfg.seedFile == "" {
			return memory.New(toMemoryRecords(cfg.records)), nil
		}
		s, err := memory.LoadFile(cfg.seedFile)
		if err != nil {
			return nil, fmt.Errorf("ragsearch: load seed file: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("ragsearch: %w: %q", db.ErrUnknownDriver, cfg.driver)
	}
}

// fillEmbeddings embeds in-memory records that came without vectors.
// Records it cannot embed stay reachable through keyword search only.
func fillEmbeddings(ctx context.Context, mem *memory.Store, e Embedder, obs *observer) {
	start := time.Now()
	n, err := mem.FillEmbeddings(ctx, func(ctx context.Context, text string) ([]float32, error) {
		r, err := e.Embed(ctx, text)
		return r.Embedding, err
	})
	obs.observe("fill_embeddings", start, err, "filled", n, "missing", mem.Missing())
}

func (cfg *clientConfig) searchParams() searchuc.Params {
	return searchuc.Params{
		MatchThreshold: cfg.params.MatchThreshold,
		MatchCount:     cfg.params.MatchCount,
		RerankTopK:     cfg.params.RerankTopK,
		TextLimit:      cfg.params.TextLimit,
	}
}

func wireClient(store db.ContentStore, cfg *clientConfig, obs *observer) *Client {
	repo := contentrepo.New(store)

	// Embedder: noop if not set (every query falls back to keyword search)
	var domEmb domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}

	svc := searchuc.New(domEmb, repo, repo, zap.NewNop()).
		WithParams(cfg.searchParams())
	// Pass nil interface (not typed nil pointer!) when no reranker is set.
	if cfg.reranker != nil {
		svc = svc.WithReranker(&rerankerAdapter{inner: cfg.reranker})
	}

	return &Client{
		store:     store,
		searchSvc: svc,
		healthSvc: healthuc.New(store, nil),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search answers one query. Provider failures degrade to keyword search;
// an error is returned only for an invalid query (ErrInvalidQuery) or when
// keyword search fails too (ErrSearchUnavailable).
func (c *Client) Search(ctx context.Context, query string) (resp Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, "method", resp.Method, "results", len(resp.Results)) }()

	out := c.searchSvc.Search(ctx, query)
	if !out.Success() {
		return Response{}, out.Err()
	}

	results := out.Results()
	resp = Response{
		Method:  string(out.Method()),
		Results: make([]Result, len(results)),
	}
	for i := range results {
		resp.Results[i] = resultFromDomain(&results[i])
	}
	return resp, nil
}

func resultFromDomain(r *result.Result) Result {
	out := Result{
		ID:       r.ID(),
		Content:  r.Content(),
		Category: r.Category(),
		Tags:     r.Tags(),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if sim, ok := r.Similarity(); ok {
		out.Similarity = &sim
	}
	if rel, ok := r.RelevanceScore(); ok {
		out.RelevanceScore = &rel
	}
	return out
}

func toMemoryRecords(records []Record) []memory.Record {
	out := make([]memory.Record, len(records))
	for i, r := range records {
		out[i] = memory.Record{
			ID:        r.ID,
			Content:   r.Content,
			Category:  r.Category,
			Tags:      r.Tags,
			Embedding: r.Embedding,
		}
	}
	return out
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// rerankerAdapter wraps public Reranker to satisfy the pipeline's reranker port.
type rerankerAdapter struct {
	inner Reranker
}

func (a *rerankerAdapter) Rerank(
	ctx context.Context, query string, documents []string, topK int,
) ([]domain.RerankHit, error) {
	hits, err := a.inner.Rerank(ctx, query, documents, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankFailure, err)
	}
	out := make([]domain.RerankHit, len(hits))
	for i, h := range hits {
		out[i] = domain.RerankHit{Index: h.Index, RelevanceScore: h.RelevanceScore}
	}
	return out, nil
}

// noopEmbedder fails every call, sending queries to keyword search.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"ragsearch: embedder not configured (use WithEmbedder): %w", domain.ErrUpstreamUnavailable,
	)
}
