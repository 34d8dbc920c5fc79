package models

// SearchResult is a single retrieval hit. The score scale depends on the
// backend: the flat store reports 1/(1+distance), the managed store
// 1-distance. Scores from different backends are not comparable.
type SearchResult struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float64                `json:"score"`
}

// StoreStats describes the state of the retrieval store.
type StoreStats struct {
	EntryCount          int    `json:"entry_count"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	Backend             string `json:"backend"`
}
