package service

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/AnTengye/clausewise/backend/analyzer"
	"github.com/AnTengye/clausewise/backend/model"
)

// DefaultRunTimeout bounds one pipeline run when no other limit is set
const DefaultRunTimeout = 5 * time.Minute

// ErrTextTooShort rejects documents whose normalized text is below the minimum length
var ErrTextTooShort = errors.New("document text is too short for analysis")

// AnalysisService validates input and fronts the pipeline with the result
// cache. Concurrent requests for the same text share one pipeline run.
type AnalysisService struct {
	pipeline      *analyzer.Pipeline
	cache         *ResultCache
	metrics       *Metrics
	minTextLength int
	runTimeout    time.Duration
	group         singleflight.Group
}

// AnalysisOption configures an AnalysisService
type AnalysisOption func(*AnalysisService)

// WithRunTimeout bounds each pipeline run. Backend calls still in flight at
// the deadline fail and their stages fall back.
func WithRunTimeout(d time.Duration) AnalysisOption {
	return func(s *AnalysisService) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// NewAnalysisService accepts a nil cache and nil metrics.
func NewAnalysisService(pipeline *analyzer.Pipeline, cache *ResultCache, metrics *Metrics, minTextLength int, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		pipeline:      pipeline,
		cache:         cache,
		metrics:       metrics,
		minTextLength: minTextLength,
		runTimeout:    DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Availability reports the pipeline's backend snapshot
func (s *AnalysisService) Availability() model.Availability {
	return s.pipeline.Availability()
}

// Analyze returns ErrTextTooShort for short input and ctx.Err() when the caller
// gives up first; otherwise it always yields an analysis.
func (s *AnalysisService) Analyze(ctx context.Context, raw string) (*model.Analysis, error) {
	doc := analyzer.Normalize(raw)
	if utf8.RuneCountInString(doc.Text) < s.minTextLength {
		return nil, ErrTextTooShort
	}

	tier := s.pipeline.Availability().Tier()
	key := CacheKey(doc.Text, tier)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.observeCache(true)
			return cached, nil
		case errors.Is(err, ErrCacheMiss):
			s.observeCache(false)
		default:
			slog.Warn("analysis cache read failed", "error", err)
		}
	}

	// The shared run outlives any single caller so a cancelled request
	// cannot hand a degraded result to the others.
	ch := s.group.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.runTimeout)
		defer cancel()

		analysis := s.pipeline.Analyze(runCtx, doc.Text)
		if s.metrics != nil {
			s.metrics.ObserveAnalysis(analysis.Tier)
		}
		s.store(runCtx, key, analysis)
		return analysis, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			slog.Debug("analysis shared with concurrent request", "key", key)
		}
		return res.Val.(*model.Analysis), nil
	}
}

// store skips runs where an available backend failed so the next request
// retries the backends instead of reading a fallback result for the whole TTL.
func (s *AnalysisService) store(ctx context.Context, key string, analysis *model.Analysis) {
	if s.cache == nil {
		return
	}
	if analysis.Paths.Degraded(s.pipeline.Availability()) {
		slog.Debug("degraded analysis not cached", "key", key, "paths", analysis.Paths)
		s.observeCacheWrite(CacheWriteSkipped)
		return
	}
	if err := s.cache.Set(ctx, key, analysis); err != nil {
		slog.Warn("analysis cache write failed", "error", err)
		s.observeCacheWrite(CacheWriteFailed)
		return
	}
	s.observeCacheWrite(CacheWriteStored)
}

func (s *AnalysisService) observeCache(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCache(hit)
	}
}

func (s *AnalysisService) observeCacheWrite(result string) {
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(result)
	}
}
