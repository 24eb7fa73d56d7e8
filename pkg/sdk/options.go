package ragsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver           string // "postgres" or "memory"
	dsn              string
	table            string
	matchFunction    string
	seedFile         string
	records          []Record
	readinessTimeout time.Duration

	embedder Embedder
	reranker Reranker
	params   Params

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres configures a Postgres content store with the pgvector extension.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverPostgres
		c.dsn = dsn
	})
}

// WithTable overrides the Postgres content table. Default: school_info.
func WithTable(table string) Option {
	return optionFunc(func(c *clientConfig) {
		c.table = table
	})
}

// WithMatchFunction routes vector queries through a SQL function such as match_documents.
func WithMatchFunction(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.matchFunction = name
	})
}

// WithSeedFile configures an in-memory store loaded from a JSON array of records.
func WithSeedFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.seedFile = path
	})
}

// WithRecords configures an in-memory store over the given records.
func WithRecords(records []Record) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.records = records
	})
}

// WithReadinessTimeout bounds the initial database readiness check. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithEmbedder sets the query embedding provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithReranker enables reranking of vector results.
func WithReranker(r Reranker) Option {
	return optionFunc(func(c *clientConfig) {
		c.reranker = r
	})
}

// WithParams tunes the pipeline.
func WithParams(p Params) Option {
	return optionFunc(func(c *clientConfig) {
		c.params = p
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
