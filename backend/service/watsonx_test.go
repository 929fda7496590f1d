package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnTengye/clausewise/backend/config"
)

func testWatsonxConfig(url string) *config.WatsonxConfig {
	cfg := &config.Config{}
	cfg.Watsonx = config.WatsonxConfig{URL: url, ProjectID: "project-1", APIKey: "key"}
	cfg.ApplyDefaults()
	return &cfg.Watsonx
}

func TestNewWatsonxGeneratorNotConfigured(t *testing.T) {
	cfg := testWatsonxConfig("https://watsonx.test")
	cfg.ProjectID = ""
	if _, err := NewWatsonxGenerator(cfg, time.Second); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestWatsonxGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ml/v1/text/generation" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("version") != config.DefaultWatsonxVersion {
			t.Errorf("Unexpected version %q", r.URL.Query().Get("version"))
		}

		var req watsonxRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode body: %v", err)
			return
		}
		if req.Input != "Simplify this" {
			t.Errorf("Unexpected input %q", req.Input)
		}
		if req.ModelID != config.DefaultWatsonxModel || req.ProjectID != "project-1" {
			t.Errorf("Unexpected model/project %s/%s", req.ModelID, req.ProjectID)
		}
		if req.Parameters.DecodingMethod != "greedy" || req.Parameters.MaxNewTokens != 800 {
			t.Errorf("Unexpected parameters %+v", req.Parameters)
		}

		w.Write([]byte(`{"results":[{"generated_text":"Plain version.","stop_reason":"eos_token"}]}`))
	}))
	defer server.Close()

	gen := newWatsonxGenerator(testWatsonxConfig(server.URL), server.Client())
	if gen.Name() != GeneratorWatsonx {
		t.Errorf("Expected name %s, got %s", GeneratorWatsonx, gen.Name())
	}
	if gen.ChunkLimit() != 2000 {
		t.Errorf("Expected chunk limit 2000, got %d", gen.ChunkLimit())
	}

	text, err := gen.Generate(context.Background(), "Simplify this")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != "Plain version." {
		t.Errorf("Unexpected text %q", text)
	}
}

func TestWatsonxGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"error status", http.StatusBadRequest, `{"errors":[{"code":"invalid_input"}]}`, ErrBackendStatus},
		{"no results", http.StatusOK, `{"results":[]}`, ErrEmptyGeneration},
		{"blank text", http.StatusOK, `{"results":[{"generated_text":"  "}]}`, ErrEmptyGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newWatsonxGenerator(testWatsonxConfig(server.URL), server.Client()).Generate(context.Background(), "p")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
