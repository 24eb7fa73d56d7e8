// Package postgres implements db.ContentStore over Postgres with the pgvector extension.
//
// The vector query mirrors the match_documents SQL function used by the ingestion side:
// similarity = 1 - (embedding <=> query), filtered by similarity > threshold.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/ragsearch/internal/db"
)

// Compile-time check: Store implements db.ContentStore.
var _ db.ContentStore = (*Store)(nil)

const (
	defaultTable            = "school_info"
	defaultTextSearchConfig = "simple"
)

// Config holds connection and query settings.
type Config struct {
	DSN string
	// Table is the content table. Default: school_info.
	Table string
	// MatchFunction, when set, routes vector queries through the named SQL function
	// (signature: query_embedding vector, match_threshold float, match_count int).
	MatchFunction string
	// TextSearchConfig is the regconfig used for full text search. Default: simple.
	TextSearchConfig string
}

// Store implements db.ContentStore via a pgx pool.
type Store struct {
	pool      *pgxpool.Pool
	matchSQL  string
	textSQL   string
	tsConfig  string
	useMatchF bool
}

// NewStore creates a pgx pool. The connection is established lazily; use WaitForReady.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	s := &Store{pool: pool}
	s.prepareSQL(cfg)
	return s, nil
}

func (s *Store) prepareSQL(cfg Config) {
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	s.tsConfig = cfg.TextSearchConfig
	if s.tsConfig == "" {
		s.tsConfig = defaultTextSearchConfig
	}
	s.matchSQL, s.useMatchF = buildMatchSQL(table, cfg.MatchFunction)
	s.textSQL = buildTextSQL(table)
}

// buildMatchSQL returns the vector query. Parameters: $1 vector, $2 threshold, $3 limit.
func buildMatchSQL(table, matchFunction string) (string, bool) {
	if matchFunction != "" {
		fn := pgx.Identifier{matchFunction}.Sanitize()
		return `SELECT id::text, content, COALESCE(category, ''), COALESCE(tags, '{}'::text[]), similarity::float8
FROM ` + fn + `($1::vector, $2, $3)
ORDER BY similarity DESC, id`, true
	}

	t := pgx.Identifier{table}.Sanitize()
	return `SELECT id::text, content, COALESCE(category, ''), COALESCE(tags, '{}'::text[]),
	(1 - (embedding <=> $1::vector))::float8 AS similarity
FROM ` + t + `
WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1::vector) > $2
ORDER BY embedding <=> $1::vector, id
LIMIT $3`, false
}

// buildTextSQL returns the keyword query. Parameters: $1 query, $2 regconfig, $3 limit.
func buildTextSQL(table string) string {
	t := pgx.Identifier{table}.Sanitize()
	return `SELECT id::text, content, COALESCE(category, ''), COALESCE(tags, '{}'::text[]),
	ts_rank(to_tsvector($2::regconfig, content), websearch_to_tsquery($2::regconfig, $1))::float8 AS rank
FROM ` + t + `
WHERE to_tsvector($2::regconfig, content) @@ websearch_to_tsquery($2::regconfig, $1)
ORDER BY rank DESC, id
LIMIT $3`
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: timeout waiting for database: %w", db.ErrStoreNotReady, ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// MatchDocuments runs the cosine similarity query.
func (s *Store) MatchDocuments(ctx context.Context, q *db.VectorQuery) ([]db.Row, error) {
	if len(q.Vector) == 0 {
		return nil, &db.Error{Op: db.OpMatchDocuments, Err: db.ErrInvalidVector}
	}

	rows, err := s.pool.Query(ctx, s.matchSQL, pgvector.NewVector(q.Vector), q.Threshold, q.Limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpMatchDocuments, Err: err}
	}

	out, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, &db.Error{Op: db.OpMatchDocuments, Err: err}
	}
	return out, nil
}

// TextSearch runs the full text query.
func (s *Store) TextSearch(ctx context.Context, q *db.TextQuery) ([]db.Row, error) {
	rows, err := s.pool.Query(ctx, s.textSQL, q.Query, s.tsConfig, q.Limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpTextSearch, Err: err}
	}

	out, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, &db.Error{Op: db.OpTextSearch, Err: err}
	}
	return out, nil
}

func scanRow(row pgx.CollectableRow) (db.Row, error) {
	var r db.Row
	if err := row.Scan(&r.ID, &r.Content, &r.Category, &r.Tags, &r.Score); err != nil {
		return db.Row{}, fmt.Errorf("scan row: %w", err)
	}
	return r, nil
}

// UsesMatchFunction reports whether vector queries go through a SQL function.
func (s *Store) UsesMatchFunction() bool {
	return s.useMatchF
}
