package db

// VectorQuery is the input for vector similarity search.
// Rows must satisfy similarity > Threshold.
type VectorQuery struct {
	Vector    []float32
	Threshold float64
	Limit     int
}

// TextQuery is the input for keyword search.
type TextQuery struct {
	Query string
	Limit int
}

// Row is a single record returned by a content query.
// Score is the cosine similarity for vector queries and the text rank for keyword queries.
type Row struct {
	ID       string
	Content  string
	Category string
	Tags     []string
	Score    float64
}
