package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

type strategyFake struct {
	name     string
	answer   string
	err      error
	attempts int
}

func (f *strategyFake) Name() string { return f.name }
func (f *strategyFake) Attempt(context.Context, string, []domain.RetrievedChunk) (string, error) {
	f.attempts++
	return f.answer, f.err
}

func someChunks(n int) []domain.RetrievedChunk {
	chunks := make([]domain.RetrievedChunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, domain.RetrievedChunk{
			Text:   fmt.Sprintf("regulation text %d", i),
			Source: fmt.Sprintf("source-%d", i),
		})
	}
	return chunks
}

func TestGenerateAnswerEmptyContextShortCircuits(t *testing.T) {
	strategy := &strategyFake{name: "fake", answer: "never"}
	router := NewRouter(nil, nil, strategy)

	got := router.GenerateAnswer(context.Background(), "question", nil)
	if got != noContextAnswer {
		t.Fatalf("expected fixed no-context message, got %q", got)
	}
	if strategy.attempts != 0 {
		t.Fatalf("no strategy must run without context, got %d attempts", strategy.attempts)
	}
}

func TestGenerateAnswerNoProvidersUsesExtractiveFallback(t *testing.T) {
	router := NewRouter(nil, nil)

	long := strings.Repeat("z", 400)
	chunks := []domain.RetrievedChunk{
		{Text: long, Source: "EU Commission"},
		{Text: "short chunk", Source: "EDPB"},
		{Text: "third chunk", Source: "CEN"},
		{Text: "fourth chunk must not appear", Source: "extra"},
	}

	got := router.GenerateAnswer(context.Background(), "what about the DPP?", chunks)
	if !strings.Contains(got, "what about the DPP?") {
		t.Fatalf("expected literal question in fallback, got %q", got)
	}
	bullets := 0
	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, "- ") {
			bullets++
		}
	}
	if bullets != 3 {
		t.Fatalf("expected exactly 3 bullets, got %d in %q", bullets, got)
	}
	if strings.Contains(got, "fourth chunk") {
		t.Fatalf("fallback must use at most 3 chunks, got %q", got)
	}

	for _, line := range strings.Split(got, "\n") {
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		body := strings.TrimPrefix(line, "- ")
		if idx := strings.LastIndex(body, " (source:"); idx >= 0 {
			body = body[:idx]
		}
		if n := len([]rune(body)); n > snippetRuneLimit+3 {
			t.Fatalf("snippet of %d runes exceeds limit: %q", n, line)
		}
	}
	if !strings.Contains(got, strings.Repeat("z", snippetRuneLimit)+"...") {
		t.Fatalf("expected truncation marker on long chunk, got %q", got)
	}
	if strings.Contains(got, strings.Repeat("z", snippetRuneLimit+1)) {
		t.Fatalf("long chunk not truncated to %d runes", snippetRuneLimit)
	}
}

func TestGenerateAnswerFallsThroughFailedStrategies(t *testing.T) {
	first := &strategyFake{name: "first", err: errors.New("provider down")}
	second := &strategyFake{name: "second", answer: "generated answer"}

	var chosen []string
	router := NewRouter(nil, func(s string) { chosen = append(chosen, s) }, first, second)

	got := router.GenerateAnswer(context.Background(), "q", someChunks(2))
	if got != "generated answer" {
		t.Fatalf("expected second strategy answer, got %q", got)
	}
	if first.attempts != 1 || second.attempts != 1 {
		t.Fatalf("expected both strategies attempted once, got %d/%d", first.attempts, second.attempts)
	}
	if len(chosen) != 1 || chosen[0] != "second" {
		t.Fatalf("expected second strategy observed, got %v", chosen)
	}
}

func TestGenerateAnswerEmptyStrategyAnswerCountsAsFailure(t *testing.T) {
	empty := &strategyFake{name: "empty", answer: "   "}
	router := NewRouter(nil, nil, empty)

	got := router.GenerateAnswer(context.Background(), "q", someChunks(1))
	if !strings.Contains(got, "I found relevant fashion regulation context") {
		t.Fatalf("expected extractive fallback, got %q", got)
	}
}

func TestBuildContextNumbersItemsAndOmitsEmptyURL(t *testing.T) {
	chunks := []domain.RetrievedChunk{
		{Text: "first", Source: "EU", URL: "https://example.eu/reg"},
		{Text: "second", Source: ""},
	}
	got := buildContext(chunks)
	if !strings.Contains(got, "1. first\nSource: EU | URL: https://example.eu/reg") {
		t.Fatalf("unexpected first item rendering: %q", got)
	}
	if !strings.Contains(got, "2. second\nSource: unknown") {
		t.Fatalf("unexpected second item rendering: %q", got)
	}
	if strings.Contains(strings.SplitN(got, "\n\n", 2)[1], "URL:") {
		t.Fatalf("empty URL must be omitted: %q", got)
	}
}
