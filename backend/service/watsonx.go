package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AnTengye/clausewise/backend/config"
)

// WatsonxGenerator calls the foundation-model text generation endpoint.
type WatsonxGenerator struct {
	endpoint   string
	modelID    string
	projectID  string
	params     watsonxParameters
	chunkLimit int
	httpClient *http.Client
}

type watsonxParameters struct {
	DecodingMethod string  `json:"decoding_method"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	MinNewTokens   int     `json:"min_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopK           int     `json:"top_k"`
	TopP           float64 `json:"top_p"`
}

type watsonxRequest struct {
	Input      string            `json:"input"`
	ModelID    string            `json:"model_id"`
	ProjectID  string            `json:"project_id"`
	Parameters watsonxParameters `json:"parameters"`
}

type watsonxResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
		StopReason    string `json:"stop_reason"`
	} `json:"results"`
}

// NewWatsonxGenerator returns ErrNotConfigured unless key, URL and project are set.
func NewWatsonxGenerator(cfg *config.WatsonxConfig, timeout time.Duration) (*WatsonxGenerator, error) {
	if cfg.APIKey == "" || cfg.URL == "" || cfg.ProjectID == "" {
		return nil, ErrNotConfigured
	}
	return newWatsonxGenerator(cfg, newIAMClient(cfg.APIKey, cfg.IAMURL, timeout)), nil
}

func newWatsonxGenerator(cfg *config.WatsonxConfig, client *http.Client) *WatsonxGenerator {
	return &WatsonxGenerator{
		endpoint:  strings.TrimRight(cfg.URL, "/") + "/ml/v1/text/generation?version=" + url.QueryEscape(cfg.Version),
		modelID:   cfg.ModelID,
		projectID: cfg.ProjectID,
		params: watsonxParameters{
			DecodingMethod: cfg.DecodingMethod,
			MaxNewTokens:   cfg.MaxNewTokens,
			MinNewTokens:   cfg.MinNewTokens,
			Temperature:    cfg.Temperature,
			TopK:           cfg.TopK,
			TopP:           cfg.TopP,
		},
		chunkLimit: cfg.ChunkLimit,
		httpClient: client,
	}
}

func (g *WatsonxGenerator) Name() string   { return "watsonx" }
func (g *WatsonxGenerator) ChunkLimit() int { return g.chunkLimit }

// Generate returns the first result's generated text.
func (g *WatsonxGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(watsonxRequest{
		Input:      prompt,
		ModelID:    g.modelID,
		ProjectID:  g.projectID,
		Parameters: g.params,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("watsonx", resp)
	}

	var result watsonxResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Results) == 0 || strings.TrimSpace(result.Results[0].GeneratedText) == "" {
		return "", ErrEmptyGeneration
	}
	return result.Results[0].GeneratedText, nil
}
