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
	"github.com/AnTengye/clausewise/backend/model"
)

// WatsonNLU calls the natural-language-understanding analyze endpoint.
type WatsonNLU struct {
	endpoint   string
	httpClient *http.Client
}

type nluFeatureLimit struct {
	Limit int `json:"limit"`
}

type nluFeatures struct {
	Entities *nluFeatureLimit `json:"entities,omitempty"`
	Keywords *nluFeatureLimit `json:"keywords,omitempty"`
	Concepts *nluFeatureLimit `json:"concepts,omitempty"`
}

type nluRequest struct {
	Text     string      `json:"text"`
	Features nluFeatures `json:"features"`
}

// NewWatsonNLU returns ErrNotConfigured when the API key or URL is missing.
func NewWatsonNLU(cfg *config.NLUConfig, timeout time.Duration) (*WatsonNLU, error) {
	if cfg.APIKey == "" || cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	return newWatsonNLU(cfg.URL, cfg.Version, newIAMClient(cfg.APIKey, cfg.IAMURL, timeout)), nil
}

func newWatsonNLU(baseURL, version string, client *http.Client) *WatsonNLU {
	return &WatsonNLU{
		endpoint:   strings.TrimRight(baseURL, "/") + "/v1/analyze?version=" + url.QueryEscape(version),
		httpClient: client,
	}
}

// Analyze requests only the features with a non-zero limit.
func (c *WatsonNLU) Analyze(ctx context.Context, text string, opts model.NLUOptions) (*model.NLUResult, error) {
	reqBody := nluRequest{Text: text}
	if opts.Entities > 0 {
		reqBody.Features.Entities = &nluFeatureLimit{Limit: opts.Entities}
	}
	if opts.Keywords > 0 {
		reqBody.Features.Keywords = &nluFeatureLimit{Limit: opts.Keywords}
	}
	if opts.Concepts > 0 {
		reqBody.Features.Concepts = &nluFeatureLimit{Limit: opts.Concepts}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError("nlu", resp)
	}

	var result model.NLUResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}
