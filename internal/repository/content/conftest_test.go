package content

import (
	"context"
	"testing"

	"github.com/kailas-cloud/ragsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	matchFn   func(ctx context.Context, q *db.VectorQuery) ([]db.Row, error)
	textFn    func(ctx context.Context, q *db.TextQuery) ([]db.Row, error)
	lastMatch *db.VectorQuery
	lastText  *db.TextQuery
}

func (m *mockStore) MatchDocuments(ctx context.Context, q *db.VectorQuery) ([]db.Row, error) {
	m.lastMatch = q
	if m.matchFn != nil {
		return m.matchFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) TextSearch(ctx context.Context, q *db.TextQuery) ([]db.Row, error) {
	m.lastText = q
	if m.textFn != nil {
		return m.textFn(ctx, q)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
