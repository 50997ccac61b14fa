package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
	"github.com/mkarpenko/fashion-rag-service/internal/core/usecase"
)

type chunkerFake struct{}

func (chunkerFake) Split(text string, _, _ int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Fields(text)
}

type storeFake struct {
	insertErr error
	inserted  int
	searchOut []domain.RetrievedChunk
	searchErr error
	readyErr  error
	exists    bool
}

func (s *storeFake) EnsureCollection(context.Context) error { return nil }

func (s *storeFake) InsertRecords(_ context.Context, records []domain.ChunkRecord) error {
	s.inserted += len(records)
	return s.insertErr
}

func (s *storeFake) Search(context.Context, string, int) ([]domain.RetrievedChunk, error) {
	return s.searchOut, s.searchErr
}

func (s *storeFake) Ready(context.Context) error { return s.readyErr }

func (s *storeFake) CollectionExists(context.Context) (bool, error) { return s.exists, nil }

type sourceFake struct {
	docs []domain.Document
	err  error
}

func (s *sourceFake) Load(context.Context) ([]domain.Document, error) { return s.docs, s.err }

type generatorFake struct{ answer string }

func (g generatorFake) GenerateAnswer(context.Context, string, []domain.RetrievedChunk) string {
	return g.answer
}

type queueFake struct {
	published  int
	publishErr error
}

func (q *queueFake) PublishRefreshRequested(context.Context) error {
	q.published++
	return q.publishErr
}

func (q *queueFake) SubscribeRefreshRequested(context.Context, func(context.Context) error) error {
	return nil
}

func (q *queueFake) Close() {}

func newTestRouter(store *storeFake, queue *queueFake) *Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingestUC := usecase.NewIngestRegulationsUseCase(chunkerFake{}, store, &sourceFake{
		docs: []domain.Document{{Text: "crawled regulation text", Source: "crawler"}},
	}, 800, 100)
	queryUC := usecase.NewSupportQueryUseCase(store, generatorFake{answer: "the answer"}, 5)
	statusUC := usecase.NewStatusUseCase(store)
	return NewRouter(ingestUC, queryUC, statusUC, queue, "Doc", nil, logger, 800, 100)
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIngestReturnsCounts(t *testing.T) {
	store := &storeFake{}
	handler := newTestRouter(store, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/v1/ingest",
		`{"docs":[{"text":"one two three"},{"text":"four"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Ingested  int `json:"ingested"`
		Documents int `json:"documents"`
		Chunks    int `json:"chunks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Documents != 2 || resp.Chunks != 4 || resp.Ingested != 4 {
		t.Fatalf("unexpected counts: %+v", resp)
	}
	if store.inserted != 4 {
		t.Fatalf("expected 4 records inserted, got %d", store.inserted)
	}
}

func TestIngestValidation(t *testing.T) {
	handler := newTestRouter(&storeFake{}, &queueFake{}).Handler()

	cases := []struct {
		name string
		body string
	}{
		{"missing docs", `{}`},
		{"chunk size too small", `{"docs":[{"text":"a"}],"chunk_size":50}`},
		{"chunk size too large", `{"docs":[{"text":"a"}],"chunk_size":5000}`},
		{"overlap too large", `{"docs":[{"text":"a"}],"chunk_overlap":600}`},
		{"overlap not smaller than size", `{"docs":[{"text":"a"}],"chunk_size":100,"chunk_overlap":100}`},
		{"bad json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodPost, "/v1/ingest", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestIngestAllowsExplicitZeroOverlap(t *testing.T) {
	handler := newTestRouter(&storeFake{}, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/v1/ingest",
		`{"docs":[{"text":"one two"}],"chunk_size":200,"chunk_overlap":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIngestStoreFailureIsBadGateway(t *testing.T) {
	store := &storeFake{
		insertErr: domain.WrapError(domain.ErrStoreUnavailable, "batch insert", errors.New("down")),
	}
	handler := newTestRouter(store, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/v1/ingest", `{"docs":[{"text":"one"}]}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIngestCrawledUsesSource(t *testing.T) {
	store := &storeFake{}
	handler := newTestRouter(store, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/v1/ingest/crawled", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.inserted == 0 {
		t.Fatal("expected crawled documents to be ingested")
	}

	var resp struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Source != "crawled_regulations" {
		t.Fatalf("expected crawled source label, got %q", resp.Source)
	}
}

func TestIngestResponseOmitsSourceLabel(t *testing.T) {
	handler := newTestRouter(&storeFake{}, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/v1/ingest", `{"docs":[{"text":"one"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if _, ok := resp["source"]; ok {
		t.Fatal("manual ingest response must not carry the crawled source label")
	}
}

func TestChatReturnsAnswerAndContext(t *testing.T) {
	score := 1.5
	store := &storeFake{searchOut: []domain.RetrievedChunk{
		{Text: "DPP required from 2026", Source: "espr", URL: "https://example.eu", Category: "EU Regulation", Score: &score},
	}}
	handler := newTestRouter(store, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/v1/chat", `{"query":"  what   about DPP? "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Query          string `json:"query"`
		RewrittenQuery string `json:"rewritten_query"`
		Answer         string `json:"answer"`
		Context        []struct {
			Text   string   `json:"text"`
			Source string   `json:"source"`
			Score  *float64 `json:"score"`
		} `json:"context"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Query != "what   about DPP?" {
		t.Fatalf("unexpected query echo: %q", resp.Query)
	}
	if resp.RewrittenQuery != "what about DPP?" {
		t.Fatalf("unexpected rewritten query: %q", resp.RewrittenQuery)
	}
	if resp.Answer != "the answer" {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
	if len(resp.Context) != 1 || resp.Context[0].Source != "espr" {
		t.Fatalf("unexpected context: %+v", resp.Context)
	}
	if resp.Context[0].Score == nil || *resp.Context[0].Score != 1.5 {
		t.Fatalf("score lost in transit: %+v", resp.Context[0])
	}
}

func TestChatValidation(t *testing.T) {
	handler := newTestRouter(&storeFake{}, &queueFake{}).Handler()

	for name, body := range map[string]string{
		"blank query":         `{"query":"   "}`,
		"limit too large":     `{"query":"q","limit":11}`,
		"negative limit":      `{"query":"q","limit":-1}`,
		"explicit zero limit": `{"query":"q","limit":0}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodPost, "/v1/chat", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestChatStoreFailureIsServiceUnavailable(t *testing.T) {
	store := &storeFake{
		searchErr: domain.WrapError(domain.ErrStoreUnavailable, "bm25 search", errors.New("down")),
	}
	handler := newTestRouter(store, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/v1/chat", `{"query":"q"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshSchedulesViaQueue(t *testing.T) {
	queue := &queueFake{}
	handler := newTestRouter(&storeFake{}, queue).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/v1/refresh", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if queue.published != 1 {
		t.Fatalf("expected one publish, got %d", queue.published)
	}
}

func TestRefreshPublishFailure(t *testing.T) {
	queue := &queueFake{publishErr: errors.New("no servers")}
	handler := newTestRouter(&storeFake{}, queue).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/v1/refresh", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthReportsDegradedStore(t *testing.T) {
	store := &storeFake{readyErr: errors.New("connection refused"), exists: false}
	handler := newTestRouter(store, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status           string `json:"status"`
		Collection       string `json:"collection"`
		CollectionExists bool   `json:"collection_exists"`
		StoreReady       bool   `json:"store_ready"`
		StoreError       string `json:"store_error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Status != "degraded" || resp.StoreReady || resp.Collection != "Doc" {
		t.Fatalf("unexpected health payload: %+v", resp)
	}
	if resp.StoreError != "connection refused" {
		t.Fatalf("unexpected store error: %q", resp.StoreError)
	}
}

func TestHealthzAlwaysOK(t *testing.T) {
	handler := newTestRouter(&storeFake{}, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(&storeFake{}, &queueFake{}).Handler()

	for _, path := range []string{"/v1/ingest", "/v1/ingest/crawled", "/v1/refresh", "/v1/chat"} {
		rec := doRequest(t, handler, http.MethodGet, path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, rec.Code)
		}
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	handler := newTestRouter(&storeFake{}, &queueFake{}).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/healthz", "")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated request ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") != "fixed-id" {
		t.Fatalf("expected request ID to be echoed, got %q", rec.Header().Get("X-Request-Id"))
	}
}
