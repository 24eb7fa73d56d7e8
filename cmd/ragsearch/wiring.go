package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/config"
	"github.com/kailas-cloud/ragsearch/internal/db"
	"github.com/kailas-cloud/ragsearch/internal/db/memory"
	"github.com/kailas-cloud/ragsearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/ragsearch/internal/db/redis"
	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
	contentrepo "github.com/kailas-cloud/ragsearch/internal/repository/content"
	"github.com/kailas-cloud/ragsearch/internal/repository/embcache"
	"github.com/kailas-cloud/ragsearch/internal/transport/cohere"
	openaiEmb "github.com/kailas-cloud/ragsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/ragsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/ragsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/ragsearch/internal/usecase/search"
)

// services is the assembled application. close releases stores in reverse order of creation.
type services struct {
	search  *searchuc.Service
	health  *healthuc.Service
	closers []func()
}

func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildServices is the composition root shared by serve and query.
func buildServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	svc := &services{}

	store, err := openContentStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, store.Close)

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		svc.close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to content store", zap.String("driver", cfg.Database.Driver))

	base := newBaseEmbedder(cfg, logger)

	// Pass nil interface (not typed nil pointer!) when the cache is not configured.
	var cache healthuc.Pinger
	var embedder domain.Embedder = base
	if cfg.Cache.Enabled() {
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			svc.close()
			return nil, fmt.Errorf("failed to create embedding cache: %w", err)
		}
		svc.closers = append(svc.closers, kv.Close)
		cache = kv
		embedder = embcache.New(
			base, kv, cfg.Embedding.Model,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, "openai", cfg.Embedding.Model, logger)

	if mem, ok := store.(*memory.Store); ok && mem.Missing() > 0 {
		// Records without vectors never match; embed them once at startup.
		n, err := mem.FillEmbeddings(ctx, embedFunc(embedder, cfg.Timeouts.Embedding()))
		if err != nil {
			logger.Warn("Seed embeddings incomplete, unembedded records only match text search",
				zap.Int("filled", n),
				zap.Int("missing", mem.Missing()),
				zap.Error(err),
			)
		} else {
			logger.Info("Seed embeddings filled", zap.Int("records", n))
		}
	}

	repo := contentrepo.New(store)
	svc.search = searchuc.New(embedder, repo, repo, logger).
		WithParams(searchuc.Params{
			MatchThreshold: cfg.Search.MatchThreshold,
			MatchCount:     cfg.Search.MatchCount,
			RerankTopK:     cfg.Search.RerankTopK,
			TextLimit:      cfg.Search.TextLimit,
			MaxQueryRunes:  cfg.Search.MaxQueryRunes,
		}).
		WithTimeouts(searchuc.Timeouts{
			Embedding:    cfg.Timeouts.Embedding(),
			VectorSearch: cfg.Timeouts.VectorSearch(),
			TextSearch:   cfg.Timeouts.TextSearch(),
			Rerank:       cfg.Timeouts.Rerank(),
		})

	if cfg.Rerank.Enabled() {
		reranker := cohere.NewReranker(&cohere.Config{
			APIKey:  cfg.Rerank.APIKey,
			BaseURL: cfg.Rerank.BaseURL,
			Model:   cfg.Rerank.Model,
		})
		svc.search.WithReranker(reranker)
		logger.Info("Reranking enabled", zap.String("model", reranker.ModelName()))
	} else {
		logger.Info("Reranking disabled: no rerank api key configured")
	}

	svc.health = healthuc.New(store, base)
	if cache != nil {
		svc.health.WithCache(cache)
	}

	logger.Info("Search pipeline ready",
		zap.String("embedding_model", base.ModelName()),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Float64("match_threshold", cfg.Search.MatchThreshold),
		zap.Int("match_count", cfg.Search.MatchCount),
	)

	return svc, nil
}

func newBaseEmbedder(cfg *config.Config, logger *zap.Logger) *openaiEmb.Embedder {
	return openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})
}

func openContentStore(ctx context.Context, cfg *config.Config) (db.ContentStore, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := postgres.NewStore(ctx, postgres.Config{
			DSN:              cfg.Database.DSN,
			Table:            cfg.Database.Table,
			MatchFunction:    cfg.Database.MatchFunction,
			TextSearchConfig: cfg.Database.TextSearchConfig,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		return store, nil
	case config.DriverMemory:
		store, err := memory.LoadFile(cfg.Database.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", db.ErrUnknownDriver, cfg.Database.Driver)
	}
}

// embedFunc adapts the embedder chain to the memory store's fill callback.
func embedFunc(e domain.Embedder, timeout time.Duration) memory.EmbedFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		return res.Embedding, nil
	}
}
