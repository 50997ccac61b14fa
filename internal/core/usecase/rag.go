package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
	"github.com/mkarpenko/fashion-rag-service/internal/core/ports"
)

// SupportQueryUseCase runs the retrieval-then-generation pipeline for a
// customer support question. Retrieval failures surface to the caller;
// generation never fails because the generator always degrades to an
// extractive answer.
type SupportQueryUseCase struct {
	store        ports.DocumentStore
	generator    ports.AnswerGenerator
	defaultLimit int
}

func NewSupportQueryUseCase(store ports.DocumentStore, generator ports.AnswerGenerator, defaultLimit int) *SupportQueryUseCase {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return &SupportQueryUseCase{
		store:        store,
		generator:    generator,
		defaultLimit: defaultLimit,
	}
}

func (uc *SupportQueryUseCase) Ask(ctx context.Context, query string, limit int) (*domain.RAGResult, error) {
	question := strings.TrimSpace(query)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("query is required"))
	}
	if limit <= 0 {
		limit = uc.defaultLimit
	}

	rewritten := normalizeQuery(question)

	chunks, err := uc.store.Search(ctx, rewritten, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	// The generator sees the customer's original phrasing, not the
	// normalized retrieval query.
	answer := uc.generator.GenerateAnswer(ctx, question, chunks)

	return &domain.RAGResult{
		Query:          question,
		RewrittenQuery: rewritten,
		Answer:         answer,
		Context:        chunks,
	}, nil
}

// normalizeQuery collapses runs of whitespace so the BM25 query carries
// no incidental formatting from the client.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
