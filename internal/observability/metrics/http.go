package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ragRequestsTotal    *prometheus.CounterVec
	ragNoContextTotal   *prometheus.CounterVec
	ragRetrievedChunks  *prometheus.HistogramVec
	ragDuration         *prometheus.HistogramVec
	answerStrategyTotal *prometheus.CounterVec
	ingestRunsTotal     *prometheus.CounterVec
	ingestChunksTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frs",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "frs",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "frs",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frs",
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total successful RAG requests.",
		},
		[]string{"service", "endpoint"},
	)
	ragNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frs",
			Subsystem: "rag",
			Name:      "no_context_total",
			Help:      "Total RAG requests without retrieved sources.",
		},
		[]string{"service", "endpoint"},
	)
	ragRetrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "frs",
			Subsystem: "rag",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful RAG request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	ragDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "frs",
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "RAG execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	answerStrategyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frs",
			Subsystem: "rag",
			Name:      "answer_strategy_total",
			Help:      "Total answers produced by generation strategy.",
		},
		[]string{"service", "strategy"},
	)
	ingestRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frs",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total ingestion runs by mode and status.",
		},
		[]string{"service", "mode", "status"},
	)
	ingestChunksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frs",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total chunk records written to the document store.",
		},
		[]string{"service", "mode"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ragRequestsTotal,
		ragNoContextTotal,
		ragRetrievedChunks,
		ragDuration,
		answerStrategyTotal,
		ingestRunsTotal,
		ingestChunksTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		ragRequestsTotal:    ragRequestsTotal,
		ragNoContextTotal:   ragNoContextTotal,
		ragRetrievedChunks:  ragRetrievedChunks,
		ragDuration:         ragDuration,
		answerStrategyTotal: answerStrategyTotal,
		ingestRunsTotal:     ingestRunsTotal,
		ingestChunksTotal:   ingestChunksTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordRAGObservation(service, endpoint string, chunkCount int, duration time.Duration) {
	m.ragRequestsTotal.WithLabelValues(service, endpoint).Inc()
	m.ragRetrievedChunks.WithLabelValues(service, endpoint).Observe(float64(chunkCount))
	m.ragDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())

	if chunkCount == 0 {
		m.ragNoContextTotal.WithLabelValues(service, endpoint).Inc()
	}
}

func (m *HTTPServerMetrics) RecordAnswerStrategy(service, strategy string) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.answerStrategyTotal.WithLabelValues(service, strategy).Inc()
}

func (m *HTTPServerMetrics) RecordIngestRun(service, mode string, chunks int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ingestRunsTotal.WithLabelValues(service, mode, status).Inc()
	if chunks > 0 {
		m.ingestChunksTotal.WithLabelValues(service, mode).Add(float64(chunks))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
