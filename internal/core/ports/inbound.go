package ports

import (
	"context"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

// RegulationIngestor is the inbound contract for turning raw regulation
// documents into stored chunk records.
type RegulationIngestor interface {
	Ingest(ctx context.Context, docs []domain.Document, chunkSize, chunkOverlap int) (domain.IngestStats, error)
	IngestCrawled(ctx context.Context) (domain.IngestStats, error)
}

// SupportQueryService is the inbound contract for the question/answer cycle.
type SupportQueryService interface {
	Ask(ctx context.Context, query string, limit int) (*domain.RAGResult, error)
}

// HealthReporter reports store reachability and collection existence.
type HealthReporter interface {
	Check(ctx context.Context) domain.StoreHealth
}
