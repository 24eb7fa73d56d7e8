package db

import (
	"context"
	"time"
)

// ContentStore is the read-only facade over the school information table.
type ContentStore interface {
	Pinger
	Matcher
	TextSearcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Matcher runs vector similarity queries.
type Matcher interface {
	MatchDocuments(ctx context.Context, q *VectorQuery) ([]Row, error)
}

// TextSearcher runs keyword queries.
type TextSearcher interface {
	TextSearch(ctx context.Context, q *TextQuery) ([]Row, error)
}

// KVStore provides simple key-value operations for caches.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
