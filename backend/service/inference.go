package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AnTengye/clausewise/backend/config"
)

// InferenceGenerator calls a hosted-inference model endpoint. A 503 means the
// model is still loading and is retried after a fixed delay; any other error
// status ends the call immediately.
type InferenceGenerator struct {
	endpoint    string
	token       string
	params      inferenceParameters
	maxAttempts int
	retryDelay  time.Duration
	chunkLimit  int
	httpClient  *http.Client
}

type inferenceParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	ReturnFullText bool    `json:"return_full_text"`
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceOutput struct {
	GeneratedText string `json:"generated_text"`
}

// NewInferenceGenerator returns ErrNotConfigured without an API token.
func NewInferenceGenerator(cfg *config.InferenceConfig, timeout time.Duration) (*InferenceGenerator, error) {
	if cfg.APIToken == "" {
		return nil, ErrNotConfigured
	}
	return newInferenceGenerator(cfg, &http.Client{Timeout: timeout}), nil
}

func newInferenceGenerator(cfg *config.InferenceConfig, client *http.Client) *InferenceGenerator {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &InferenceGenerator{
		endpoint: strings.TrimRight(cfg.URL, "/") + "/models/" + cfg.Model,
		token:    cfg.APIToken,
		params: inferenceParameters{
			MaxNewTokens: cfg.MaxNewTokens,
			Temperature:  cfg.Temperature,
		},
		maxAttempts: attempts,
		retryDelay:  cfg.RetryDelay,
		chunkLimit:  cfg.ChunkLimit,
		httpClient:  client,
	}
}

func (g *InferenceGenerator) Name() string   { return "inference" }
func (g *InferenceGenerator) ChunkLimit() int { return g.chunkLimit }

// CallBudget covers every attempt plus the delays between them. Each attempt
// is bounded separately by the HTTP client timeout.
func (g *InferenceGenerator) CallBudget(perAttempt time.Duration) time.Duration {
	return time.Duration(g.maxAttempts)*perAttempt + time.Duration(g.maxAttempts-1)*g.retryDelay
}

// Generate retries only on ErrModelLoading.
func (g *InferenceGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(inferenceRequest{Inputs: prompt, Parameters: g.params})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	for attempt := 1; ; attempt++ {
		text, err := g.call(ctx, jsonData)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrModelLoading) || attempt >= g.maxAttempts {
			return "", err
		}

		slog.Debug("inference model loading, retrying", "attempt", attempt, "delay", g.retryDelay)
		timer := time.NewTimer(g.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func (g *InferenceGenerator) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return "", ErrModelLoading
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("inference", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	text, err := parseInferenceOutput(raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}

// parseInferenceOutput accepts both the list and the single-object forms.
func parseInferenceOutput(raw []byte) (string, error) {
	var list []inferenceOutput
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", ErrEmptyGeneration
		}
		return list[0].GeneratedText, nil
	}

	var single inferenceOutput
	if err := json.Unmarshal(raw, &single); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return single.GeneratedText, nil
}
