package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/AnTengye/clausewise/backend/analyzer"
	"github.com/AnTengye/clausewise/backend/config"
)

// Generator names accepted by analysis.simplify_with / analysis.explain_with
const (
	GeneratorWatsonx   = "watsonx"
	GeneratorInference = "inference"
	GeneratorVertex    = "vertex"
)

// BackendSet is the outcome of BuildBackends. Close releases any clients
// that hold connections.
type BackendSet struct {
	analyzer.Backends
	closers []io.Closer
}

// Close closes every backend client that needs it
func (s *BackendSet) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildBackends constructs the backends named in cfg. A backend without
// credentials is left nil so the pipeline treats it as unavailable; other
// construction errors are logged and treated the same way.
func BuildBackends(ctx context.Context, cfg *config.Config) *BackendSet {
	set := &BackendSet{}
	timeout := cfg.Analysis.BackendTimeout

	if nlu, err := NewWatsonNLU(&cfg.NLU, timeout); err == nil {
		set.NLU = nlu
	} else {
		logUnavailable("nlu", err)
	}

	built := map[string]analyzer.Generator{}
	pick := func(name string) analyzer.Generator {
		if name == "" {
			return nil
		}
		if gen, ok := built[name]; ok {
			return gen
		}
		gen, err := set.buildGenerator(ctx, cfg, name)
		if err != nil {
			logUnavailable(name, err)
			built[name] = nil
			return nil
		}
		built[name] = gen
		return gen
	}

	if gen := pick(cfg.Analysis.SimplifyWith); gen != nil {
		set.Simplifier = gen
	}
	if gen := pick(cfg.Analysis.ExplainWith); gen != nil {
		set.Explainer = gen
	}
	return set
}

func (s *BackendSet) buildGenerator(ctx context.Context, cfg *config.Config, name string) (analyzer.Generator, error) {
	timeout := cfg.Analysis.BackendTimeout
	switch name {
	case GeneratorWatsonx:
		return NewWatsonxGenerator(&cfg.Watsonx, timeout)
	case GeneratorInference:
		return NewInferenceGenerator(&cfg.Inference, timeout)
	case GeneratorVertex:
		gen, err := NewVertexGenerator(ctx, &cfg.Vertex)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, gen)
		return gen, nil
	}
	return nil, fmt.Errorf("unknown generator %q", name)
}

func logUnavailable(backend string, err error) {
	if errors.Is(err, ErrNotConfigured) {
		slog.Info("backend not configured, using rule-based fallback", "backend", backend)
		return
	}
	slog.Warn("backend initialization failed, using rule-based fallback", "backend", backend, "error", err)
}
