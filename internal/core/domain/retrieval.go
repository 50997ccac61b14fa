package domain

// RetrievedChunk is one keyword-search hit from the document store.
// Score is the backend's relevance rank; some store builds omit it.
type RetrievedChunk struct {
	Text     string   `json:"text"`
	Source   string   `json:"source"`
	URL      string   `json:"url"`
	Category string   `json:"category"`
	Score    *float64 `json:"score"`
}

// RAGResult is the terminal state of one question/answer cycle, including
// the retrieved context so callers can display provenance.
type RAGResult struct {
	Query          string           `json:"query"`
	RewrittenQuery string           `json:"rewritten_query"`
	Answer         string           `json:"answer"`
	Context        []RetrievedChunk `json:"context"`
}

// StoreHealth is the readiness view over the document store.
type StoreHealth struct {
	Ready            bool   `json:"store_ready"`
	CollectionExists bool   `json:"collection_exists"`
	Error            string `json:"store_error,omitempty"`
}
