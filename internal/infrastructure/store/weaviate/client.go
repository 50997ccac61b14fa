package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
	"github.com/mkarpenko/fashion-rag-service/internal/infrastructure/resilience"
)

// Weaviate rejects class names outside this pattern; checking up front turns
// a confusing schema error into a configuration error.
var classNamePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)

type Client struct {
	baseURL    string
	apiKey     string
	class      string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu sync.Mutex
	ensured  bool
}

func New(baseURL, apiKey, class string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		class:      class,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// EnsureCollection creates the chunk collection on first use. Re-creation is
// idempotent: an "already exists" response from a racing creator counts as
// success. Lexical search only, so the class carries no vectorizer.
func (c *Client) EnsureCollection(ctx context.Context) error {
	if !classNamePattern.MatchString(c.class) {
		return domain.WrapError(domain.ErrConfiguration, "ensure collection",
			fmt.Errorf("class %q must start with an uppercase letter and contain only letters, digits, and underscores", c.class))
	}

	c.ensureMu.Lock()
	if c.ensured {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	err := c.execute(ctx, "store.ensure_collection", func(ctx context.Context) error {
		return c.ensureCollection(ctx)
	})
	if err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "ensure collection", err)
	}

	c.ensureMu.Lock()
	c.ensured = true
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) ensureCollection(ctx context.Context) error {
	resp, err := c.request(ctx, http.MethodGet, "/v1/schema/"+c.class, nil)
	if err != nil {
		return err
	}
	status := resp.StatusCode
	drain(resp)

	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return &HTTPStatusError{Operation: "read schema", StatusCode: status, Status: resp.Status}
	}

	payload := map[string]any{
		"class":       c.class,
		"description": "Fashion regulation chunks for customer support RAG",
		"vectorizer":  "none",
		"properties": []map[string]any{
			{"name": "text", "dataType": []string{"text"}},
			{"name": "source", "dataType": []string{"text"}},
			{"name": "url", "dataType": []string{"text"}},
			{"name": "category", "dataType": []string{"text"}},
		},
	}

	created, err := c.request(ctx, http.MethodPost, "/v1/schema", payload)
	if err != nil {
		return err
	}
	defer created.Body.Close()

	if created.StatusCode == http.StatusOK || created.StatusCode == http.StatusCreated {
		io.Copy(io.Discard, created.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(created.Body, 2048))
	// Concurrent first-time creators race; the loser sees "already exists".
	if created.StatusCode == http.StatusUnprocessableEntity && strings.Contains(string(body), "already exists") {
		return nil
	}
	return &HTTPStatusError{Operation: "create schema", StatusCode: created.StatusCode, Status: created.Status, Body: string(body)}
}

// InsertRecords submits all records as one batch write. The write succeeds
// only if every record in the batch reports no per-record error.
func (c *Client) InsertRecords(ctx context.Context, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.EnsureCollection(ctx); err != nil {
		return err
	}

	type object struct {
		Class      string         `json:"class"`
		ID         string         `json:"id"`
		Properties map[string]any `json:"properties"`
	}
	objects := make([]object, 0, len(records))
	for _, record := range records {
		objects = append(objects, object{
			Class: c.class,
			ID:    record.ID,
			Properties: map[string]any{
				"text":     record.Text,
				"source":   record.Source,
				"url":      record.URL,
				"category": record.Category,
			},
		})
	}

	err := c.execute(ctx, "store.insert", func(ctx context.Context) error {
		resp, err := c.request(ctx, http.MethodPost, "/v1/batch/objects", map[string]any{"objects": objects})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &HTTPStatusError{Operation: "batch insert", StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
		}

		failed, err := countBatchFailures(resp.Body)
		if err != nil {
			return fmt.Errorf("decode batch response: %w", err)
		}
		if failed > 0 {
			return fmt.Errorf("failed to ingest %d chunks", failed)
		}
		return nil
	})
	if err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "insert records", err)
	}
	return nil
}

// Search runs a bm25-ranked query over the collection. The query text is
// escaped before being embedded in GraphQL; unescaped quotes would corrupt
// the query structure, not just its meaning.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.RetrievedChunk, error) {
	if err := c.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	graphql := fmt.Sprintf(
		`{ Get { %s(bm25: { query: "%s" } limit: %d) { text source url category _additional { score } } } }`,
		c.class, escapeGraphQLString(query), limit,
	)

	var chunks []domain.RetrievedChunk
	err := c.execute(ctx, "store.search", func(ctx context.Context) error {
		resp, err := c.request(ctx, http.MethodPost, "/v1/graphql", map[string]any{"query": graphql})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &HTTPStatusError{Operation: "graphql query", StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
		}

		var payload struct {
			Data struct {
				Get map[string][]searchHit `json:"Get"`
			} `json:"data"`
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decode graphql response: %w", err)
		}

		if len(payload.Errors) > 0 {
			messages := make([]string, 0, len(payload.Errors))
			for _, e := range payload.Errors {
				msg := e.Message
				if msg == "" {
					msg = "unknown GraphQL error"
				}
				messages = append(messages, msg)
			}
			return fmt.Errorf("graphql errors: %s", strings.Join(messages, "; "))
		}

		hits := payload.Data.Get[c.class]
		chunks = make([]domain.RetrievedChunk, 0, len(hits))
		for _, hit := range hits {
			source := hit.Source
			if source == "" {
				source = "unknown"
			}
			category := hit.Category
			if category == "" {
				category = domain.DefaultCategory
			}
			chunks = append(chunks, domain.RetrievedChunk{
				Text:     hit.Text,
				Source:   source,
				URL:      hit.URL,
				Category: category,
				Score:    parseScore(hit.Additional.Score),
			})
		}
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "search", err)
	}
	return chunks, nil
}

// Ready probes the store's readiness endpoint. Some builds answer an empty
// 200 body, others a literal "true".
func (c *Client) Ready(ctx context.Context) error {
	resp, err := c.request(ctx, http.MethodGet, "/v1/.well-known/ready", nil)
	if err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "readiness probe", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	text := strings.ToLower(strings.TrimSpace(string(body)))
	if resp.StatusCode == http.StatusOK && (text == "" || text == "true") {
		return nil
	}
	return domain.WrapError(domain.ErrStoreUnavailable, "readiness probe",
		&HTTPStatusError{Operation: "readiness", StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)})
}

// CollectionExists queries the live schema, bypassing the ensure cache.
func (c *Client) CollectionExists(ctx context.Context) (bool, error) {
	resp, err := c.request(ctx, http.MethodGet, "/v1/schema/"+c.class, nil)
	if err != nil {
		return false, domain.WrapError(domain.ErrStoreUnavailable, "read schema", err)
	}
	status := resp.StatusCode
	drain(resp)

	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, domain.WrapError(domain.ErrStoreUnavailable, "read schema",
			&HTTPStatusError{Operation: "read schema", StatusCode: status, Status: resp.Status})
	}
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, operation, fn, classifyStoreError)
}

func (c *Client) request(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weaviate %s %s: %w", method, path, err)
	}
	return resp, nil
}

type searchHit struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	URL        string `json:"url"`
	Category   string `json:"category"`
	Additional struct {
		Score json.RawMessage `json:"score"`
	} `json:"_additional"`
}

func countBatchFailures(body io.Reader) (int, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return 0, err
	}

	type batchItem struct {
		Result struct {
			Errors *struct {
				Error []struct {
					Message string `json:"message"`
				} `json:"error"`
			} `json:"errors"`
		} `json:"result"`
	}

	var items []batchItem
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Objects []batchItem `json:"objects"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return 0, err
		}
		items = wrapped.Objects
	} else if len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return 0, err
		}
	}

	failed := 0
	for _, item := range items {
		if item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			failed++
		}
	}
	return failed, nil
}

// parseScore tolerates both the numeric and the quoted-string score forms
// returned by different store versions; absence stays nil.
func parseScore(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return &number
	}
	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(quoted), 64); err == nil {
			return &parsed
		}
	}
	return nil
}

func escapeGraphQLString(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(escaped, `"`, `\"`)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
