// Package outcome defines the response envelope of one search request.
//
// A successful outcome always carries a non-nil (possibly empty) result list and
// a method. A failed outcome carries only an error.
package outcome

import (
	"github.com/kailas-cloud/ragsearch/internal/domain/search/method"
	"github.com/kailas-cloud/ragsearch/internal/domain/search/result"
)

// Outcome is the result envelope returned by the search orchestrator.
type Outcome struct {
	success bool
	results []result.Result
	method  method.Method
	err     error
}

// OK creates a successful outcome.
func OK(results []result.Result, m method.Method) Outcome {
	if results == nil {
		results = []result.Result{}
	}
	return Outcome{success: true, results: results, method: m}
}

// Failed creates a failure outcome.
func Failed(err error) Outcome {
	return Outcome{err: err}
}

// Success reports whether the search produced results.
func (o *Outcome) Success() bool { return o.success }

// Results returns the ordered results (nil on failure).
func (o *Outcome) Results() []result.Result { return o.results }

// Method returns the producing method (empty on failure).
func (o *Outcome) Method() method.Method { return o.method }

// Err returns the failure cause (nil on success).
func (o *Outcome) Err() error { return o.err }
