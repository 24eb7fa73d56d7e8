package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/method"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/outcome"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ragsearch/internal/logger"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
)

// Service answers a query through the degradation chain
// vector search + rerank, vector search, text search.
// It holds no request state and is safe for concurrent use.
type Service struct {
	embed    Embedder
	vectors  VectorSearcher
	texts    TextSearcher
	reranker Reranker
	params   Params
	timeouts Timeouts
	logger   *zap.Logger
}

// New creates a search service without reranking.
func New(embed Embedder, vectors VectorSearcher, texts TextSearcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embed:   embed,
		vectors: vectors,
		texts:   texts,
		params:  DefaultParams(),
		logger:  logger,
	}
}

// WithReranker enables the rerank stage. Pass a nil interface to keep it disabled.
func (s *Service) WithReranker(r Reranker) *Service {
	s.reranker = r
	return s
}

// WithParams overrides the pipeline tuning. Zero fields keep their defaults.
func (s *Service) WithParams(p Params) *Service {
	s.params = p.withDefaults()
	return s
}

// WithTimeouts sets per-call timeouts.
func (s *Service) WithTimeouts(t Timeouts) *Service {
	s.timeouts = t
	return s
}

// RerankEnabled reports whether the rerank stage is configured.
func (s *Service) RerankEnabled() bool {
	return s.reranker != nil
}

// Search runs one query through the pipeline.
// Only an invalid query or a failed text search produce a failed outcome.
func (s *Service) Search(ctx context.Context, query string) outcome.Outcome {
	log := logger.FromContextOr(ctx, s.logger)

	q, err := domain.ValidateQuery(query, s.params.MaxQueryRunes)
	if err != nil {
		return s.respond(outcome.Failed(err))
	}

	emb := s.embedStage(ctx, q)
	if emb.kind != stepOK {
		return s.lexicalFallback(ctx, log, q, emb)
	}

	vec := s.vectorStage(ctx, emb.vector)
	if vec.kind != stepOK {
		return s.lexicalFallback(ctx, log, q, vec)
	}

	if s.reranker == nil || len(vec.results) == 0 {
		return s.respond(outcome.OK(vec.results, method.VectorSearch))
	}

	rr := s.rerankStage(ctx, q, vec.results)
	if rr.kind == stepDegraded {
		metrics.RerankFailuresTotal.WithLabelValues(rr.reason).Inc()
		log.Warn("Rerank skipped, keeping vector order",
			zap.Stringer("step", rr.kind),
			zap.String("reason", rr.reason),
			zap.Int("candidates", len(vec.results)),
			zap.Error(rr.err),
		)
	}
	return s.respond(outcome.OK(rr.results, method.VectorSearchWithRerank))
}

func (s *Service) embedStage(ctx context.Context, q string) step {
	ctx, cancel := withTimeout(ctx, s.timeouts.Embedding)
	defer cancel()
	defer observeStage(reasonEmbedding, time.Now())

	res, err := s.embed.Embed(ctx, q)
	if err != nil {
		return degraded(nil, reasonEmbedding, fmt.Errorf("embed query: %w", err))
	}
	if len(res.Embedding) == 0 {
		return degraded(nil, reasonEmbedding,
			fmt.Errorf("embed query: empty vector: %w", domain.ErrUpstreamUnavailable))
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	return okVector(res.Embedding)
}

func (s *Service) vectorStage(ctx context.Context, vec []float32) step {
	ctx, cancel := withTimeout(ctx, s.timeouts.VectorSearch)
	defer cancel()
	defer observeStage(reasonVectorSearch, time.Now())

	results, err := s.vectors.SearchVector(ctx, vec, s.params.MatchThreshold, s.params.MatchCount)
	if err != nil {
		return degraded(nil, reasonVectorSearch, fmt.Errorf("vector search: %w", err))
	}
	if results == nil {
		results = []result.Result{}
	}
	return ok(results)
}

func (s *Service) textStage(ctx context.Context, q string) step {
	ctx, cancel := withTimeout(ctx, s.timeouts.TextSearch)
	defer cancel()
	defer observeStage("text_search", time.Now())

	results, err := s.texts.SearchText(ctx, q, s.params.TextLimit)
	if err != nil {
		if !errors.Is(err, domain.ErrSearchUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
		}
		return fatal(fmt.Errorf("text search: %w", err))
	}

	// Text hits never carry scores.
	plain := make([]result.Result, len(results))
	for i := range results {
		plain[i] = result.FromRecord(results[i].Record())
	}
	return ok(plain)
}

func (s *Service) rerankStage(ctx context.Context, q string, candidates []result.Result) step {
	ctx, cancel := withTimeout(ctx, s.timeouts.Rerank)
	defer cancel()
	defer observeStage("rerank", time.Now())

	ranked, err := applyRerank(ctx, s.reranker, q, candidates, s.params.RerankTopK)
	if err != nil {
		return degraded(candidates, rerankReason(err), err)
	}
	return ok(ranked)
}

func (s *Service) lexicalFallback(ctx context.Context, log *zap.Logger, q string, prev step) outcome.Outcome {
	metrics.SearchFallbacksTotal.WithLabelValues(prev.reason).Inc()
	log.Warn("Falling back to text search",
		zap.Stringer("step", prev.kind),
		zap.String("reason", prev.reason),
		zap.Error(prev.err),
	)

	txt := s.textStage(ctx, q)
	if txt.kind != stepOK {
		log.Error("Text search failed", zap.Stringer("step", txt.kind), zap.Error(txt.err))
		return s.respond(outcome.Failed(txt.err))
	}
	return s.respond(outcome.OK(txt.results, method.TextSearch))
}

func (s *Service) respond(o outcome.Outcome) outcome.Outcome {
	if o.Success() {
		metrics.SearchRequestsTotal.WithLabelValues(string(o.Method()), "success").Inc()
	} else {
		metrics.SearchRequestsTotal.WithLabelValues("none", "error").Inc()
	}
	return o
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func observeStage(stage string, start time.Time) {
	metrics.SearchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
