package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

// HFRouterStrategy is the secondary hosted provider, calling a
// chat-completions router with a sub-fallback model: when the router
// rejects the requested model as unsupported, the call is retried once
// against the fallback model name.
type HFRouterStrategy struct {
	url           string
	token         string
	model         string
	fallbackModel string
	httpClient    *http.Client
}

func NewHFRouterStrategy(url, token, model, fallbackModel string, timeout time.Duration) *HFRouterStrategy {
	if timeout < 90*time.Second {
		timeout = 90 * time.Second
	}
	return &HFRouterStrategy{
		url:           url,
		token:         token,
		model:         model,
		fallbackModel: fallbackModel,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

func (s *HFRouterStrategy) Name() string { return "hf-router" }

func (s *HFRouterStrategy) Attempt(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error) {
	userPrompt := buildUserPrompt(question, chunks)

	answer, err := s.invoke(ctx, s.model, userPrompt)
	if err == nil {
		return answer, nil
	}

	var unsupported *unsupportedModelError
	if errors.As(err, &unsupported) && s.fallbackModel != "" && s.fallbackModel != s.model {
		return s.invoke(ctx, s.fallbackModel, userPrompt)
	}
	return "", err
}

func (s *HFRouterStrategy) invoke(ctx context.Context, model, userPrompt string) (string, error) {
	status, resp, err := postChatCompletion(ctx, s.httpClient, s.url, s.token, chatRequest{
		Model:       model,
		Temperature: 0.1,
		MaxTokens:   320,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}
	if status >= http.StatusBadRequest {
		if status == http.StatusBadRequest && strings.Contains(strings.ToLower(resp.Error.Message), "not supported") {
			return "", &unsupportedModelError{model: model, message: resp.Error.Message}
		}
		return "", fmt.Errorf("hf router status %d (%s): %s", status, model, resp.Error.Message)
	}

	content := resp.content()
	if content == "" {
		return "", fmt.Errorf("hf router returned empty completion for %s", model)
	}
	return content, nil
}

type unsupportedModelError struct {
	model   string
	message string
}

func (e *unsupportedModelError) Error() string {
	return fmt.Sprintf("model %s not supported by router: %s", e.model, e.message)
}
