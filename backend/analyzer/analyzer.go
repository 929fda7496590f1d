// Package analyzer turns normalized legal text into clauses, entities, a
// document type, a plain-language rendering, per-clause explanations and a
// summary. Every stage has a backend path and a deterministic rule-based
// path; backend failures are resolved locally and never surface to callers.
package analyzer

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/AnTengye/clausewise/backend/model"
)

// NLUClient is a text-analysis backend returning typed entities, keywords and concepts.
type NLUClient interface {
	Analyze(ctx context.Context, text string, opts model.NLUOptions) (*model.NLUResult, error)
}

// Generator is a generative-text backend.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	// ChunkLimit is the largest input, in characters, the backend should receive.
	ChunkLimit() int
}

// Backends groups the optional backends handed to a pipeline. Nil means unavailable.
type Backends struct {
	NLU        NLUClient
	Simplifier Generator
	Explainer  Generator
}

// Availability snapshots which backends are present.
func (b Backends) Availability() model.Availability {
	return model.Availability{
		NLU:        b.NLU != nil,
		Simplifier: b.Simplifier != nil,
		Explainer:  b.Explainer != nil,
	}
}

// Config holds the pipeline tunables.
type Config struct {
	// EntityConfidence is the minimum (exclusive) confidence for backend entities.
	EntityConfidence float64
	// KeywordRelevance is the minimum (exclusive) relevance for backend keywords.
	KeywordRelevance float64
	// BackendTimeout bounds each backend call. Zero means no extra deadline.
	BackendTimeout time.Duration
}

// DefaultConfig uses 0.6 for both thresholds and a 30 second call timeout.
func DefaultConfig() Config {
	return Config{
		EntityConfidence: 0.6,
		KeywordRelevance: 0.6,
		BackendTimeout:   30 * time.Second,
	}
}

// Recorder receives stage telemetry. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStage(stage string, path model.Path, d time.Duration)
	ObserveBackendCall(stage string, err error, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, model.Path, time.Duration)  {}
func (nopRecorder) ObserveBackendCall(string, error, time.Duration) {}

// Stage names used for logging and telemetry
const (
	StageClassify = "classify"
	StageEntities = "entities"
	StageSimplify = "simplify"
	StageExplain  = "explain"
)

// CallBudgeter is implemented by backends that retry internally and bound
// each attempt themselves. CallBudget returns the deadline for one whole call
// given the per-attempt timeout.
type CallBudgeter interface {
	CallBudget(perAttempt time.Duration) time.Duration
}

// callTimeout widens timeout to the backend's own budget when it has one.
func callTimeout(backend any, timeout time.Duration) time.Duration {
	if b, ok := backend.(CallBudgeter); ok && timeout > 0 {
		return b.CallBudget(timeout)
	}
	return timeout
}

// callBackend runs fn under the configured timeout, converts panics into
// errors and reports the outcome to rec.
func callBackend(ctx context.Context, timeout time.Duration, rec Recorder, stage string, fn func(ctx context.Context) error) (err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s backend panicked: %v", stage, r)
		}
		rec.ObserveBackendCall(stage, err, time.Since(start))
	}()

	return fn(ctx)
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
