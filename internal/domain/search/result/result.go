package result

import "github.com/kailas-cloud/ragsearch/internal/domain"

// Result is a single search hit.
// Similarity is set only for vector search hits; relevance only after a successful rerank.
type Result struct {
	record     domain.ContentRecord
	similarity float64
	relevance  float64
	hasSim     bool
	hasRel     bool
}

// FromRecord creates a result without scores (text search hit).
func FromRecord(rec domain.ContentRecord) Result {
	return Result{record: rec}
}

// WithSimilarity creates a vector search hit.
func WithSimilarity(rec domain.ContentRecord, similarity float64) Result {
	return Result{record: rec, similarity: similarity, hasSim: true}
}

// WithRelevance returns a copy of r carrying a rerank relevance score.
func (r Result) WithRelevance(score float64) Result {
	r.relevance = score
	r.hasRel = true
	return r
}

// ID returns the record identifier.
func (r *Result) ID() string { return r.record.ID }

// Content returns the record text.
func (r *Result) Content() string { return r.record.Content }

// Category returns the record category.
func (r *Result) Category() string { return r.record.Category }

// Tags returns the record tags.
func (r *Result) Tags() []string { return r.record.Tags }

// Record returns the underlying content record.
func (r *Result) Record() domain.ContentRecord { return r.record }

// Similarity returns the cosine similarity and whether it is set.
func (r *Result) Similarity() (float64, bool) { return r.similarity, r.hasSim }

// RelevanceScore returns the rerank relevance score and whether it is set.
func (r *Result) RelevanceScore() (float64, bool) { return r.relevance, r.hasRel }
