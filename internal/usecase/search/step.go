package search

import "github.com/kailas-cloud/ragsearch/internal/domain/search/result"

type stepKind int

const (
	// stepOK: the stage produced its output.
	stepOK stepKind = iota
	// stepDegraded: the stage failed but the request can continue on a cheaper path.
	stepDegraded
	// stepFatal: the request cannot be answered.
	stepFatal
)

func (k stepKind) String() string {
	switch k {
	case stepOK:
		return "ok"
	case stepDegraded:
		return "degraded"
	case stepFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Degradation reasons, used as metric labels.
const (
	reasonEmbedding       = "embedding"
	reasonVectorSearch    = "vector_search"
	reasonRerankProvider  = "provider"
	reasonRerankMalformed = "invalid_response"
)

// step is the tagged result of one pipeline stage.
type step struct {
	kind    stepKind
	vector  []float32
	results []result.Result
	reason  string
	err     error
}

func okVector(vec []float32) step {
	return step{kind: stepOK, vector: vec}
}

func ok(results []result.Result) step {
	return step{kind: stepOK, results: results}
}

func degraded(results []result.Result, reason string, err error) step {
	return step{kind: stepDegraded, results: results, reason: reason, err: err}
}

func fatal(err error) step {
	return step{kind: stepFatal, err: err}
}
