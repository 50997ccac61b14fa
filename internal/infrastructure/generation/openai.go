package generation

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

const DefaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIStrategy is the primary hosted provider.
type OpenAIStrategy struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIStrategy(url, apiKey, model string, timeout time.Duration) *OpenAIStrategy {
	if url == "" {
		url = DefaultOpenAIURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAIStrategy{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *OpenAIStrategy) Name() string { return "openai" }

func (s *OpenAIStrategy) Attempt(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error) {
	status, resp, err := postChatCompletion(ctx, s.httpClient, s.url, s.apiKey, chatRequest{
		Model:       s.model,
		Temperature: 0.1,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(question, chunks)},
		},
	})
	if err != nil {
		return "", err
	}
	if status >= http.StatusBadRequest {
		return "", fmt.Errorf("openai status %d: %s", status, resp.Error.Message)
	}

	content := resp.content()
	if content == "" {
		return "", fmt.Errorf("openai returned empty completion")
	}
	return content, nil
}
