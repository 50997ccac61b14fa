package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
	"github.com/mkarpenko/fashion-rag-service/internal/core/ports"
)

// IngestRegulationsUseCase turns raw regulation documents into chunk
// records and drives them through the chunker and the document store.
type IngestRegulationsUseCase struct {
	chunker ports.Chunker
	store   ports.DocumentStore
	source  ports.RegulationSource

	defaultChunkSize    int
	defaultChunkOverlap int
}

func NewIngestRegulationsUseCase(
	chunker ports.Chunker,
	store ports.DocumentStore,
	source ports.RegulationSource,
	defaultChunkSize, defaultChunkOverlap int,
) *IngestRegulationsUseCase {
	if defaultChunkSize <= 0 {
		defaultChunkSize = 800
	}
	if defaultChunkOverlap < 0 {
		defaultChunkOverlap = 0
	}
	return &IngestRegulationsUseCase{
		chunker:             chunker,
		store:               store,
		source:              source,
		defaultChunkSize:    defaultChunkSize,
		defaultChunkOverlap: defaultChunkOverlap,
	}
}

func (uc *IngestRegulationsUseCase) Ingest(
	ctx context.Context,
	docs []domain.Document,
	chunkSize, chunkOverlap int,
) (domain.IngestStats, error) {
	if len(docs) == 0 {
		return domain.IngestStats{}, domain.WrapError(domain.ErrInvalidInput, "ingest", errors.New("docs is required"))
	}
	if chunkOverlap >= chunkSize {
		return domain.IngestStats{}, domain.WrapError(domain.ErrInvalidInput, "ingest",
			errors.New("chunk_overlap must be smaller than chunk_size"))
	}

	records := uc.buildRecords(docs, chunkSize, chunkOverlap)
	if len(records) == 0 {
		return domain.IngestStats{}, domain.WrapError(domain.ErrInvalidInput, "ingest",
			errors.New("no ingestible text found in docs"))
	}

	if err := uc.store.InsertRecords(ctx, records); err != nil {
		return domain.IngestStats{}, fmt.Errorf("insert chunk records: %w", err)
	}

	return domain.IngestStats{
		Ingested:  len(records),
		Documents: len(docs),
		Chunks:    len(records),
	}, nil
}

// IngestCrawled sources documents from the crawler collaborator and runs
// them through the same chunk-and-insert path with the default parameters.
func (uc *IngestRegulationsUseCase) IngestCrawled(ctx context.Context) (domain.IngestStats, error) {
	rows, err := uc.source.Load(ctx)
	if err != nil {
		return domain.IngestStats{}, fmt.Errorf("load crawled regulations: %w", err)
	}

	docs := make([]domain.Document, 0, len(rows))
	for _, doc := range rows {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return domain.IngestStats{}, domain.WrapError(domain.ErrInvalidInput, "ingest crawled",
			errors.New("no crawled regulation content found"))
	}

	return uc.Ingest(ctx, docs, uc.defaultChunkSize, uc.defaultChunkOverlap)
}

func (uc *IngestRegulationsUseCase) buildRecords(docs []domain.Document, chunkSize, chunkOverlap int) []domain.ChunkRecord {
	var records []domain.ChunkRecord
	for _, doc := range docs {
		for _, chunk := range uc.chunker.Split(doc.Text, chunkSize, chunkOverlap) {
			records = append(records, domain.ChunkRecord{
				ID:       uuid.NewString(),
				Text:     chunk,
				Source:   doc.Source,
				URL:      doc.URL,
				Category: doc.Category,
			})
		}
	}
	return records
}
