package semantic

// VectorRecord is a single entry to store: point id, embedding, and a
// payload holding the record metadata plus the canonical text under "text".
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any
}

// SearchResult is one nearest-neighbor hit, ranked by the store's native
// metric (cosine; higher score is closer). Payload values are stringified.
type SearchResult struct {
	ID      string            `json:"id"`
	Score   float32           `json:"score"`
	Payload map[string]string `json:"payload"`
}

// Field returns a payload value, or "" when absent.
func (r SearchResult) Field(key string) string {
	return r.Payload[key]
}
