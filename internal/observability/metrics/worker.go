package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	crawlTotal     *prometheus.CounterVec
	crawlDuration  *prometheus.HistogramVec
	crawlInFlight  prometheus.Gauge
	ingestedChunks *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	crawlTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frs",
			Subsystem: "worker",
			Name:      "crawl_runs_total",
			Help:      "Total crawl-and-ingest runs by status.",
		},
		[]string{"service", "status"},
	)
	crawlDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "frs",
			Subsystem: "worker",
			Name:      "crawl_run_duration_seconds",
			Help:      "Crawl-and-ingest run duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	crawlInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "frs",
			Subsystem: "worker",
			Name:      "crawl_runs_in_flight",
			Help:      "Number of in-flight crawl-and-ingest runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ingestedChunks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frs",
			Subsystem: "worker",
			Name:      "ingested_chunks_total",
			Help:      "Total chunk records written during crawl runs.",
		},
		[]string{"service"},
	)

	registry.MustRegister(crawlTotal, crawlDuration, crawlInFlight, ingestedChunks)

	return &WorkerMetrics{
		registry:       registry,
		crawlTotal:     crawlTotal,
		crawlDuration:  crawlDuration,
		crawlInFlight:  crawlInFlight,
		ingestedChunks: ingestedChunks,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartCrawl() {
	m.crawlInFlight.Inc()
}

func (m *WorkerMetrics) FinishCrawl(service string, duration time.Duration, chunks int, err error) {
	m.crawlInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.crawlTotal.WithLabelValues(service, status).Inc()
	m.crawlDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if chunks > 0 {
		m.ingestedChunks.WithLabelValues(service).Add(float64(chunks))
	}
}
