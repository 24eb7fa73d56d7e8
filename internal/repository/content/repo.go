package content

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kailas-cloud/ragsearch/internal/db"
	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/result"
)

// store is the consumer interface for content queries (ISP).
type store interface {
	MatchDocuments(ctx context.Context, q *db.VectorQuery) ([]db.Row, error)
	TextSearch(ctx context.Context, q *db.TextQuery) ([]db.Row, error)
}

// Repo implements the vector and text search stages of usecase/search.
type Repo struct {
	store store
}

// New creates a content repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchVector returns records with similarity > threshold, ordered by similarity desc then ID,
// truncated to limit. Store errors wrap domain.ErrSearchBackend.
func (r *Repo) SearchVector(
	ctx context.Context, vector []float32, threshold float64, limit int,
) ([]result.Result, error) {
	rows, err := r.store.MatchDocuments(ctx, &db.VectorQuery{
		Vector:    vector,
		Threshold: threshold,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchBackend, err)
	}

	// Drivers that route through a SQL function may not honour every rule; enforce here.
	filtered := rows[:0:0]
	for _, row := range rows {
		if row.Score > threshold {
			filtered = append(filtered, row)
		}
	}
	sortByScore(filtered)
	filtered = truncate(filtered, limit)

	results := make([]result.Result, len(filtered))
	for i, row := range filtered {
		results[i] = result.WithSimilarity(toRecord(row), row.Score)
	}
	return results, nil
}

// SearchText returns keyword matches in store rank order, truncated to limit.
// Results carry no similarity. Store errors wrap domain.ErrSearchUnavailable.
func (r *Repo) SearchText(ctx context.Context, query string, limit int) ([]result.Result, error) {
	rows, err := r.store.TextSearch(ctx, &db.TextQuery{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}

	rows = truncate(rows, limit)
	results := make([]result.Result, len(rows))
	for i, row := range rows {
		results[i] = result.FromRecord(toRecord(row))
	}
	return results, nil
}

func toRecord(row db.Row) domain.ContentRecord {
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.ContentRecord{
		ID:       normalizeID(row.ID),
		Content:  row.Content,
		Category: row.Category,
		Tags:     tags,
	}
}

// normalizeID canonicalises UUID identifiers so tie-breaking is stable across drivers.
// Non-UUID identifiers (seed files) pass through unchanged.
func normalizeID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

func sortByScore(rows []db.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return normalizeID(rows[i].ID) < normalizeID(rows[j].ID)
	})
}

func truncate(rows []db.Row, limit int) []db.Row {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
