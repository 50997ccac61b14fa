package generation

import (
	"fmt"
	"strings"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

const systemPrompt = "You are a customer support assistant for a fashion retailer. " +
	"Answer only from the provided regulatory context. " +
	"If context is insufficient, state that clearly. " +
	"Include short source mentions."

func buildUserPrompt(question string, chunks []domain.RetrievedChunk) string {
	return fmt.Sprintf(
		"Customer question: %s\n\nRegulatory context:\n%s\n\nReturn a concise answer with 2-4 bullet points where useful.",
		question,
		buildContext(chunks),
	)
}

func buildContext(chunks []domain.RetrievedChunk) string {
	lines := make([]string, 0, len(chunks))
	for idx, chunk := range chunks {
		source := chunk.Source
		if source == "" {
			source = "unknown"
		}
		urlPart := ""
		if chunk.URL != "" {
			urlPart = " | URL: " + chunk.URL
		}
		lines = append(lines, fmt.Sprintf("%d. %s\nSource: %s%s", idx+1, chunk.Text, source, urlPart))
	}
	return strings.Join(lines, "\n\n")
}
