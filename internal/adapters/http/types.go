package httpadapter

type ingestDoc struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

type ingestRequest struct {
	Docs      []ingestDoc `json:"docs"`
	ChunkSize int         `json:"chunk_size"`
	// Pointer so an explicit zero overlap is distinguishable from absent.
	ChunkOverlap *int `json:"chunk_overlap"`
}

type ingestResponse struct {
	Ingested  int `json:"ingested"`
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	// Set only on the crawled-ingestion path.
	Source string `json:"source,omitempty"`
}

type chatRequest struct {
	Query string `json:"query"`
	// Pointer so an explicit zero is rejected rather than defaulted.
	Limit *int `json:"limit"`
}

type contextItem struct {
	Text     string   `json:"text"`
	Source   string   `json:"source"`
	URL      string   `json:"url,omitempty"`
	Category string   `json:"category"`
	Score    *float64 `json:"score"`
}

type chatResponse struct {
	Query          string        `json:"query"`
	RewrittenQuery string        `json:"rewritten_query"`
	Answer         string        `json:"answer"`
	Context        []contextItem `json:"context"`
}

type healthResponse struct {
	Status           string `json:"status"`
	Collection       string `json:"collection"`
	CollectionExists bool   `json:"collection_exists"`
	StoreReady       bool   `json:"store_ready"`
	StoreError       string `json:"store_error,omitempty"`
}
