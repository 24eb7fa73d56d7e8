package method

// Method names the pipeline stage that produced a search response.
type Method string

// Search method constants.
const (
	VectorSearch           Method = "vector_search"
	VectorSearchWithRerank Method = "vector_search_with_rerank"
	// TextSearch marks results produced by the lexical fallback.
	TextSearch Method = "text_search"
)

// IsValid checks if the method is one of the supported values.
func (m Method) IsValid() bool {
	return m == VectorSearch || m == VectorSearchWithRerank || m == TextSearch
}

// IsVector reports whether results came from the vector path (and may carry similarity).
func (m Method) IsVector() bool {
	return m == VectorSearch || m == VectorSearchWithRerank
}
