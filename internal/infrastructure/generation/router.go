package generation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mkarpenko/fashion-rag-service/internal/config"
	"github.com/mkarpenko/fashion-rag-service/internal/core/domain"
)

// Strategy is one answer provider in the priority chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error)
}

// Router tries strategies in order and degrades to the extractive fallback.
// It never fails: provider outages are masked, not surfaced.
type Router struct {
	strategies []Strategy
	logger     *slog.Logger
	observe    func(strategy string)
}

func NewRouter(logger *slog.Logger, observe func(strategy string), strategies ...Strategy) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if observe == nil {
		observe = func(string) {}
	}
	return &Router{
		strategies: strategies,
		logger:     logger,
		observe:    observe,
	}
}

// NewRouterFromConfig assembles the provider chain for this deployment:
// the primary provider when its key is configured, otherwise the secondary.
func NewRouterFromConfig(cfg config.Config, logger *slog.Logger, observe func(strategy string)) *Router {
	var strategies []Strategy
	switch {
	case cfg.OpenAIAPIKey != "":
		strategies = append(strategies, NewOpenAIStrategy(DefaultOpenAIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.RequestTimeout))
	case cfg.HFAPIToken != "":
		strategies = append(strategies, NewHFRouterStrategy(cfg.HFRouterURL, cfg.HFAPIToken, cfg.HFModel, cfg.HFFallback, cfg.HFCallTimeout))
	}
	return NewRouter(logger, observe, strategies...)
}

func (r *Router) GenerateAnswer(ctx context.Context, question string, chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		r.observe("no_context")
		return noContextAnswer
	}

	for _, strategy := range r.strategies {
		answer, err := strategy.Attempt(ctx, question, chunks)
		if err == nil && strings.TrimSpace(answer) != "" {
			r.observe(strategy.Name())
			return answer
		}
		r.logger.Warn("answer_strategy_failed", "strategy", strategy.Name(), "error", err)
	}

	r.observe("extractive")
	return extractiveAnswer(question, chunks)
}
