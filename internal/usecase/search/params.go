package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/ragsearch/internal/domain"
)

// Defaults for Params.
const (
	DefaultMatchThreshold = 0.7
	DefaultMatchCount     = 10
	DefaultRerankTopK     = 5
	DefaultTextLimit      = 10
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid search params")

// Params tunes the search pipeline. Zero fields fall back to defaults.
// MatchThreshold is a cosine similarity in (0, 1); zero means unset.
type Params struct {
	MatchThreshold float64
	MatchCount     int
	RerankTopK     int
	TextLimit      int
	MaxQueryRunes  int
}

// DefaultParams returns the production tuning.
func DefaultParams() Params {
	return Params{
		MatchThreshold: DefaultMatchThreshold,
		MatchCount:     DefaultMatchCount,
		RerankTopK:     DefaultRerankTopK,
		TextLimit:      DefaultTextLimit,
		MaxQueryRunes:  domain.DefaultMaxQueryRunes,
	}
}

// Validate rejects values that withDefaults would not fill in.
func (p Params) Validate() error {
	if p.MatchThreshold < 0 || p.MatchThreshold >= 1 {
		return fmt.Errorf("%w: match threshold must be in (0, 1), got %g", ErrInvalidParams, p.MatchThreshold)
	}
	if p.MatchCount < 0 || p.RerankTopK < 0 || p.TextLimit < 0 || p.MaxQueryRunes < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidParams)
	}
	return nil
}

// withDefaults fills unset fields only. Out-of-range values pass through
// unchanged; callers reject them with Validate.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.MatchThreshold == 0 {
		p.MatchThreshold = d.MatchThreshold
	}
	if p.MatchCount == 0 {
		p.MatchCount = d.MatchCount
	}
	if p.RerankTopK == 0 {
		p.RerankTopK = d.RerankTopK
	}
	if p.TextLimit == 0 {
		p.TextLimit = d.TextLimit
	}
	if p.MaxQueryRunes == 0 {
		p.MaxQueryRunes = d.MaxQueryRunes
	}
	return p
}

// Timeouts bound each outbound call independently. Zero disables the bound.
type Timeouts struct {
	Embedding    time.Duration
	VectorSearch time.Duration
	TextSearch   time.Duration
	Rerank       time.Duration
}
