package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/ragsearch/internal/db"
)

// EmbedFunc returns the embedding of one record's content.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Missing returns the number of records without an embedding.
func (s *Store) Missing() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := range s.records {
		if len(s.records[i].Embedding) == 0 {
			n++
		}
	}
	return n
}

// FillEmbeddings embeds every record that has no vector and returns how many were filled.
// The first error stops the fill; vectors computed before it are kept.
func (s *Store) FillEmbeddings(ctx context.Context, embed EmbedFunc) (int, error) {
	s.mu.RLock()
	var pending []int
	recs := make(map[int]Record)
	for i := range s.records {
		if len(s.records[i].Embedding) == 0 {
			pending = append(pending, i)
			recs[i] = s.records[i]
		}
	}
	s.mu.RUnlock()

	var fillErr error
	vectors := make(map[int][]float32, len(pending))
	for _, i := range pending {
		rec := recs[i]
		vec, err := embed(ctx, rec.Content)
		if err == nil && len(vec) == 0 {
			err = db.ErrInvalidVector
		}
		if err != nil {
			fillErr = &db.Error{Op: db.OpEmbedSeed, Err: fmt.Errorf("record %s: %w", rec.ID, err)}
			break
		}
		vectors[i] = vec
	}

	s.mu.Lock()
	for i, vec := range vectors {
		s.records[i].Embedding = vec
	}
	s.mu.Unlock()

	return len(vectors), fillErr
}

// WriteFile saves the records as a seed file readable by LoadFile.
func (s *Store) WriteFile(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return &db.Error{Op: db.OpWriteSeed, Err: err}
	}
	if err := os.WriteFile(filepath.Clean(path), append(data, '\n'), 0o600); err != nil {
		return &db.Error{Op: db.OpWriteSeed, Err: err}
	}
	return nil
}
