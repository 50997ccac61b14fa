package domain

// Document is a raw regulation text submitted for ingestion. It exists only
// for the duration of the ingest call; persistence happens at chunk level.
type Document struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	URL      string `json:"url,omitempty"`
	Category string `json:"category"`
}

// ChunkRecord is the unit of storage in the document store collection.
type ChunkRecord struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// IngestStats reports what an ingestion run produced.
type IngestStats struct {
	Ingested  int `json:"ingested"`
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

const (
	DefaultSource   = "custom"
	DefaultCategory = "general"
)
