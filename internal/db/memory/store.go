// Package memory implements db.ContentStore over an in-process record set loaded from a
// JSON seed file. Used for local development and as the reference for result ordering.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/ragsearch/internal/db"
)

// Compile-time check: Store implements db.ContentStore.
var _ db.ContentStore = (*Store)(nil)

// Record is a seeded content record with its precomputed embedding.
type Record struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Store is an in-memory content store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []Record
}

// New creates a store over the given records. The slice is copied.
func New(records []Record) *Store {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Store{records: cp}
}

// LoadFile reads a JSON array of records.
func LoadFile(path string) (*Store, error) {
	if path == "" {
		return nil, db.ErrMissingSeedFile
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, &db.Error{Op: db.OpLoadSeed, Err: err}
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &db.Error{Op: db.OpLoadSeed, Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	return New(records), nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady always succeeds.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// MatchDocuments scores every record with an embedding of matching dimensionality.
func (s *Store) MatchDocuments(ctx context.Context, q *db.VectorQuery) ([]db.Row, error) {
	qNorm := norm(q.Vector)
	if len(q.Vector) == 0 || qNorm == 0 || math.IsNaN(qNorm) || math.IsInf(qNorm, 0) {
		return nil, &db.Error{Op: db.OpMatchDocuments, Err: db.ErrInvalidVector}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []db.Row
	for i := range s.records {
		if err := ctx.Err(); err != nil {
			return nil, &db.Error{Op: db.OpMatchDocuments, Err: err}
		}
		rec := &s.records[i]
		if len(rec.Embedding) != len(q.Vector) {
			continue
		}
		sim := cosineSimilarity(q.Vector, qNorm, rec.Embedding)
		if sim > q.Threshold {
			out = append(out, toRow(rec, sim))
		}
	}

	sortRows(out)
	return truncate(out, q.Limit), nil
}

// TextSearch matches records containing every whitespace-separated term (case-insensitive),
// ranked by total term occurrences.
func (s *Store) TextSearch(ctx context.Context, q *db.TextQuery) ([]db.Row, error) {
	terms := strings.Fields(strings.ToLower(q.Query))
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []db.Row
	for i := range s.records {
		if err := ctx.Err(); err != nil {
			return nil, &db.Error{Op: db.OpTextSearch, Err: err}
		}
		rec := &s.records[i]
		if hits := countTerms(strings.ToLower(rec.Content), terms); hits > 0 {
			out = append(out, toRow(rec, float64(hits)))
		}
	}

	sortRows(out)
	return truncate(out, q.Limit), nil
}

// countTerms returns total occurrences, or 0 if any term is missing.
func countTerms(content string, terms []string) int {
	total := 0
	for _, t := range terms {
		n := strings.Count(content, t)
		if n == 0 {
			return 0
		}
		total += n
	}
	return total
}

func toRow(rec *Record, score float64) db.Row {
	return db.Row{
		ID:       rec.ID,
		Content:  rec.Content,
		Category: rec.Category,
		Tags:     rec.Tags,
		Score:    score,
	}
}

// sortRows orders by score desc, then id asc.
func sortRows(rows []db.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].ID < rows[j].ID
	})
}

func truncate(rows []db.Row, limit int) []db.Row {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineSimilarity returns 1 - cosine distance. Zero-norm records score 0.
func cosineSimilarity(q []float32, qNorm float64, v []float32) float64 {
	var dot float64
	for i := range q {
		dot += float64(q[i]) * float64(v[i])
	}
	vNorm := norm(v)
	if vNorm == 0 {
		return 0
	}
	return dot / (qNorm * vNorm)
}
