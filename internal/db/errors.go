package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound     = errors.New("db: key not found")
	ErrInvalidVector   = errors.New("db: invalid query vector")
	ErrStoreNotReady   = errors.New("db: store not ready")
	ErrUnknownDriver   = errors.New("db: unknown driver")
	ErrMissingSeedFile = errors.New("db: seed file is required")
)

// Op constants name the failing operation for error context.
const (
	OpPing           = "PING"
	OpGet            = "GET"
	OpSet            = "SET"
	OpMatchDocuments = "match_documents"
	OpTextSearch     = "text_search"
	OpLoadSeed       = "load_seed"
	OpEmbedSeed      = "embed_seed"
	OpWriteSeed      = "write_seed"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
