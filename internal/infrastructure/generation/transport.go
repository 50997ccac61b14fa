package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatResponse covers both response shapes the providers return: a
// structured choice list or a flat generated-text field.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	GeneratedText string `json:"generated_text"`
	Error         struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r chatResponse) content() string {
	if len(r.Choices) > 0 {
		if content := strings.TrimSpace(r.Choices[0].Message.Content); content != "" {
			return content
		}
	}
	return strings.TrimSpace(r.GeneratedText)
}

func postChatCompletion(
	ctx context.Context,
	client *http.Client,
	url, token string,
	payload chatRequest,
) (int, chatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, chatResponse{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, chatResponse{}, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, chatResponse{}, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, chatResponse{}, fmt.Errorf("read chat response: %w", err)
	}

	var decoded chatResponse
	// Error bodies are still worth decoding for the provider's message.
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded, nil
}
