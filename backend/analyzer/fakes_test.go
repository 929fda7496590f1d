package analyzer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AnTengye/clausewise/backend/model"
)

const scenarioText = "This Agreement is between Acme Inc. and Beta LLC. Acme shall pay Beta $10,000 on or before January 1, 2025. This Non-Disclosure obligation survives termination."

var errBackendDown = errors.New("backend down")

type fakeNLU struct {
	mu       sync.Mutex
	result   *model.NLUResult
	err      error
	panicMsg string
	calls    int
	texts    []string
	opts     []model.NLUOptions
}

func (f *fakeNLU) Analyze(_ context.Context, text string, opts model.NLUOptions) (*model.NLUResult, error) {
	f.mu.Lock()
	f.calls++
	f.texts = append(f.texts, text)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.result, f.err
}

// fakeGenerator answers from a queue of responses, then repeats the default.
type fakeGenerator struct {
	mu        sync.Mutex
	name      string
	limit     int
	responses []string
	errs      []error
	fallback  string
	prompts   []string
	block     bool
}

func (f *fakeGenerator) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeGenerator) ChunkLimit() int {
	if f.limit == 0 {
		return 2000
	}
	return f.limit
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.fallback, nil
}

func (f *fakeGenerator) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type recordedStage struct {
	stage string
	path  model.Path
}

type memRecorder struct {
	mu       sync.Mutex
	stages   []recordedStage
	calls    map[string]int
	failures map[string]int
}

func newMemRecorder() *memRecorder {
	return &memRecorder{calls: map[string]int{}, failures: map[string]int{}}
}

func (r *memRecorder) ObserveStage(stage string, path model.Path, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, recordedStage{stage, path})
}

func (r *memRecorder) ObserveBackendCall(stage string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[stage]++
	if err != nil {
		r.failures[stage]++
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BackendTimeout = time.Second
	return cfg
}
