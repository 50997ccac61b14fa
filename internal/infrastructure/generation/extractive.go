package generation

import (
	"fmt"
	"strings"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

const (
	noContextAnswer = "No relevant documents were found for this question."

	snippetRuneLimit    = 220
	maxFallbackSnippets = 3
)

// extractiveAnswer is the terminal degradation tier: truncated source
// snippets instead of generated text. It cannot fail.
func extractiveAnswer(question string, chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return "I could not find matching policy context yet. Please ingest regulations first, then ask again."
	}

	limit := maxFallbackSnippets
	if len(chunks) < limit {
		limit = len(chunks)
	}

	snippets := make([]string, 0, limit)
	for _, chunk := range chunks[:limit] {
		text := strings.TrimSpace(chunk.Text)
		if runes := []rune(text); len(runes) > snippetRuneLimit {
			text = string(runes[:snippetRuneLimit]) + "..."
		}
		source := chunk.Source
		if source == "" {
			source = "unknown"
		}
		snippets = append(snippets, fmt.Sprintf("- %s (source: %s)", text, source))
	}

	return fmt.Sprintf("I found relevant fashion regulation context for: '%s'.\n%s",
		question, strings.Join(snippets, "\n"))
}
