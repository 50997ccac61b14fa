package ports

import (
	"context"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

// Chunker splits raw text into bounded overlapping windows.
type Chunker interface {
	Split(text string, chunkSize, chunkOverlap int) []string
}

// DocumentStore manages the regulation chunk collection and performs
// batched writes and keyword-ranked queries against it.
type DocumentStore interface {
	EnsureCollection(ctx context.Context) error
	InsertRecords(ctx context.Context, records []domain.ChunkRecord) error
	Search(ctx context.Context, query string, limit int) ([]domain.RetrievedChunk, error)
	Ready(ctx context.Context) error
	CollectionExists(ctx context.Context) (bool, error)
}

// RegulationSource supplies seed regulation documents, either freshly
// crawled or from a curated fallback set.
type RegulationSource interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// AnswerGenerator produces the final user-facing answer. It degrades
// through its provider chain instead of failing.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, chunks []domain.RetrievedChunk) string
}

// RefreshQueue publishes/consumes corpus refresh requests.
type RefreshQueue interface {
	PublishRefreshRequested(ctx context.Context) error
	SubscribeRefreshRequested(ctx context.Context, handler func(context.Context) error) error
	Close()
}
