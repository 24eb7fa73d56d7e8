package ragsearch

import (
	"github.com/kailas-cloud/ragsearch/internal/domain"
	searchuc "github.com/kailas-cloud/ragsearch/internal/usecase/search"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery      = domain.ErrInvalidQuery
	ErrSearchUnavailable = domain.ErrSearchUnavailable
	ErrInvalidParams     = searchuc.ErrInvalidParams
)
