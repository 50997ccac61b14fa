package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
	"github.com/mkarpenko/fashion-rag-service/internal/core/ports"
	"github.com/mkarpenko/fashion-rag-service/internal/core/usecase"
	"github.com/mkarpenko/fashion-rag-service/internal/observability/metrics"
)

const serviceName = "fashion-rag-api"

const (
	minChunkSize    = 100
	maxChunkSize    = 2000
	maxChunkOverlap = 500
	maxChatLimit    = 10
)

type Router struct {
	ingestUC *usecase.IngestRegulationsUseCase
	queryUC  *usecase.SupportQueryUseCase
	statusUC *usecase.StatusUseCase
	queue    ports.RefreshQueue

	collection string
	metrics    *metrics.HTTPServerMetrics
	logger     *slog.Logger

	defaultChunkSize    int
	defaultChunkOverlap int
}

func NewRouter(
	ingestUC *usecase.IngestRegulationsUseCase,
	queryUC *usecase.SupportQueryUseCase,
	statusUC *usecase.StatusUseCase,
	queue ports.RefreshQueue,
	collection string,
	serverMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	defaultChunkSize, defaultChunkOverlap int,
) *Router {
	return &Router{
		ingestUC:            ingestUC,
		queryUC:             queryUC,
		statusUC:            statusUC,
		queue:               queue,
		collection:          collection,
		metrics:             serverMetrics,
		logger:              logger,
		defaultChunkSize:    defaultChunkSize,
		defaultChunkOverlap: defaultChunkOverlap,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/health", rt.health)
	mux.HandleFunc("/v1/ingest", rt.ingest)
	mux.HandleFunc("/v1/ingest/crawled", rt.ingestCrawled)
	mux.HandleFunc("/v1/refresh", rt.refresh)
	mux.HandleFunc("/v1/chat", rt.chat)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = accessLogMiddleware(rt.logger, handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	health := rt.statusUC.Check(r.Context())

	status := "ok"
	if !health.Ready || !health.CollectionExists {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:           status,
		Collection:       rt.collection,
		CollectionExists: health.CollectionExists,
		StoreReady:       health.Ready,
		StoreError:       health.Error,
	})
}

func (rt *Router) ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Docs) == 0 {
		writeError(w, http.StatusBadRequest, "docs is required")
		return
	}

	chunkSize := req.ChunkSize
	if chunkSize == 0 {
		chunkSize = rt.defaultChunkSize
	}
	chunkOverlap := req.ChunkOverlap
	if chunkOverlap == nil {
		defaultOverlap := rt.defaultChunkOverlap
		chunkOverlap = &defaultOverlap
	}
	if chunkSize < minChunkSize || chunkSize > maxChunkSize {
		writeError(w, http.StatusBadRequest, "chunk_size must be between 100 and 2000")
		return
	}
	if *chunkOverlap < 0 || *chunkOverlap > maxChunkOverlap {
		writeError(w, http.StatusBadRequest, "chunk_overlap must be between 0 and 500")
		return
	}
	if *chunkOverlap >= chunkSize {
		writeError(w, http.StatusBadRequest, "chunk_overlap must be smaller than chunk_size")
		return
	}

	stats, err := rt.ingestUC.Ingest(r.Context(), toDomainDocs(req.Docs), chunkSize, *chunkOverlap)
	if rt.metrics != nil {
		rt.metrics.RecordIngestRun(serviceName, "manual", stats.Chunks, err)
	}
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err, http.StatusBadGateway), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Ingested:  stats.Ingested,
		Documents: stats.Documents,
		Chunks:    stats.Chunks,
	})
}

func (rt *Router) ingestCrawled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := rt.ingestUC.IngestCrawled(r.Context())
	if rt.metrics != nil {
		rt.metrics.RecordIngestRun(serviceName, "crawled", stats.Chunks, err)
	}
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err, http.StatusBadGateway), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Ingested:  stats.Ingested,
		Documents: stats.Documents,
		Chunks:    stats.Chunks,
		Source:    "crawled_regulations",
	})
}

func (rt *Router) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if rt.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh queue is not configured")
		return
	}

	if err := rt.queue.PublishRefreshRequested(r.Context()); err != nil {
		rt.logger.Error("refresh_publish_failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "could not schedule refresh")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	limit := 0
	if req.Limit != nil {
		if *req.Limit < 1 || *req.Limit > maxChatLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 10")
			return
		}
		limit = *req.Limit
	}

	start := time.Now()
	result, err := rt.queryUC.Ask(r.Context(), req.Query, limit)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err, http.StatusServiceUnavailable), err.Error())
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(serviceName, "/v1/chat", len(result.Context), time.Since(start))
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Query:          result.Query,
		RewrittenQuery: result.RewrittenQuery,
		Answer:         result.Answer,
		Context:        toContextItems(result.Context),
	})
}

func toDomainDocs(docs []ingestDoc) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		source := strings.TrimSpace(doc.Source)
		if source == "" {
			source = domain.DefaultSource
		}
		category := strings.TrimSpace(doc.Category)
		if category == "" {
			category = domain.DefaultCategory
		}
		out = append(out, domain.Document{
			Text:     doc.Text,
			Source:   source,
			URL:      doc.URL,
			Category: category,
		})
	}
	return out
}

func toContextItems(chunks []domain.RetrievedChunk) []contextItem {
	items := make([]contextItem, 0, len(chunks))
	for _, chunk := range chunks {
		items = append(items, contextItem{
			Text:     chunk.Text,
			Source:   chunk.Source,
			URL:      chunk.URL,
			Category: chunk.Category,
			Score:    chunk.Score,
		})
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
