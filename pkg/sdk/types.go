package ragsearch

// Search method values reported in Response.Method.
const (
	MethodVectorSearch           = "vector_search"
	MethodVectorSearchWithRerank = "vector_search_with_rerank"
	MethodTextSearch             = "text_search"
)

// Record is a content record with its precomputed embedding, for in-memory stores.
type Record struct {
	ID        string
	Content   string
	Category  string
	Tags      []string
	Embedding []float32
}

// Params tunes the pipeline. Zero fields keep the service defaults
// (threshold 0.7, 10 candidates, top 5 after rerank, 10 keyword hits).
// MatchThreshold must be in (0, 1); New rejects anything else.
type Params struct {
	MatchThreshold float64
	MatchCount     int
	RerankTopK     int
	TextLimit      int
}

// Response is the result of one search.
type Response struct {
	Method  string
	Results []Result
}

// Result is one matched record. Scores are nil when the method does not produce them:
// keyword results carry neither, unreranked vector results carry no RelevanceScore.
type Result struct {
	ID             string
	Content        string
	Category       string
	Tags           []string
	Similarity     *float64
	RelevanceScore *float64
}
