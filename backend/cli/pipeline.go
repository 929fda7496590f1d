package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AnTengye/clausewise/backend/analyzer"
	"github.com/AnTengye/clausewise/backend/config"
	"github.com/AnTengye/clausewise/backend/service"
)

// analysisStack is the pipeline with its backends and optional cache
type analysisStack struct {
	service  *service.AnalysisService
	backends *service.BackendSet
	cache    *service.ResultCache
}

// buildAnalysisStack wires backends, the pipeline and the result cache.
// metrics may be nil. A cache that cannot connect is skipped.
func buildAnalysisStack(ctx context.Context, cfg *config.Config, metrics *service.Metrics) *analysisStack {
	backends := service.BuildBackends(ctx, cfg)

	opts := []analyzer.Option{}
	if metrics != nil {
		opts = append(opts, analyzer.WithRecorder(metrics))
	}
	pipeline := analyzer.NewPipeline(analyzer.Config{
		EntityConfidence: cfg.Analysis.EntityConfidence,
		KeywordRelevance: cfg.Analysis.KeywordRelevance,
		BackendTimeout:   cfg.Analysis.BackendTimeout,
	}, backends.Backends, opts...)

	cache, err := service.NewResultCache(ctx, &cfg.Redis)
	switch {
	case err == nil:
		slog.Info("analysis cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	case errors.Is(err, service.ErrNotConfigured):
		slog.Debug("analysis cache disabled")
	default:
		slog.Warn("analysis cache unavailable, continuing without it", "error", err)
	}

	avail := pipeline.Availability()
	slog.Info("analysis pipeline ready",
		"nlu", avail.NLU,
		"simplifier", avail.Simplifier,
		"explainer", avail.Explainer,
		"tier", avail.Tier(),
	)

	return &analysisStack{
		service:  service.NewAnalysisService(pipeline, cache, metrics, cfg.Analysis.MinTextLength,
			service.WithRunTimeout(cfg.Analysis.RunTimeout)),
		backends: backends,
		cache:    cache,
	}
}

// Close releases backend clients and the cache connection
func (s *analysisStack) Close() error {
	errs := []error{s.backends.Close()}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	return errors.Join(errs...)
}
