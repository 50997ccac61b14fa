package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	WeaviateURL    string
	WeaviateAPIKey string
	CollectionName string
	RequestTimeout time.Duration

	OpenAIAPIKey string
	OpenAIModel  string

	HFAPIToken    string
	HFModel       string
	HFFallback    string
	HFRouterURL   string
	HFCallTimeout time.Duration

	ChunkSize    int
	ChunkOverlap int
	RAGTopK      int

	NATSURL     string
	NATSSubject string

	CrawlerRatePerSecond float64
	CrawlerFetchTimeout  time.Duration
	CrawlerCachePath     string

	WorkerMetricsPort string
}

func Load() Config {
	requestTimeout := time.Duration(mustEnvInt("RAG_REQUEST_TIMEOUT_SECONDS", 20)) * time.Second
	hfTimeout := requestTimeout
	if hfTimeout < 90*time.Second {
		hfTimeout = 90 * time.Second
	}

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		WeaviateURL:    mustEnv("WEAVIATE_URL", "http://weaviate:8080"),
		WeaviateAPIKey: mustEnv("WEAVIATE_API_KEY", ""),
		CollectionName: mustEnv("WEAVIATE_CLASS", "Doc"),
		RequestTimeout: requestTimeout,

		OpenAIAPIKey: mustEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  mustEnv("OPENAI_MODEL", "gpt-4o-mini"),

		HFAPIToken:    mustEnv("HF_API_TOKEN", ""),
		HFModel:       mustEnv("HF_MODEL", "mistralai/Mistral-7B-Instruct-v0.2"),
		HFFallback:    mustEnv("HF_FALLBACK_MODEL", "meta-llama/Llama-3.1-8B-Instruct"),
		HFRouterURL:   mustEnv("HF_CHAT_COMPLETIONS_URL", "https://router.huggingface.co/v1/chat/completions"),
		HFCallTimeout: hfTimeout,

		ChunkSize:    mustEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap: mustEnvInt("CHUNK_OVERLAP", 100),
		RAGTopK:      mustEnvInt("RAG_TOP_K", 5),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "regulations.refresh"),

		CrawlerRatePerSecond: mustEnvFloat("CRAWLER_RATE_PER_SECOND", 1),
		CrawlerFetchTimeout:  time.Duration(mustEnvInt("CRAWLER_FETCH_TIMEOUT_SECONDS", 5)) * time.Second,
		CrawlerCachePath:     mustEnv("CRAWLER_CACHE_PATH", "fashion_regulations.json"),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
