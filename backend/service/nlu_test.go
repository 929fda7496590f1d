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
	"github.com/AnTengye/clausewise/backend/model"
)

func TestNewWatsonNLUNotConfigured(t *testing.T) {
	tests := []config.NLUConfig{
		{},
		{APIKey: "key"},
		{URL: "https://nlu.test"},
	}
	for _, cfg := range tests {
		if _, err := NewWatsonNLU(&cfg, time.Second); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("Expected ErrNotConfigured for %+v, got %v", cfg, err)
		}
	}
}

func TestWatsonNLUAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/analyze" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("version") != "2022-04-07" {
			t.Errorf("Unexpected version %q", r.URL.Query().Get("version"))
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
			return
		}
		features := body["features"].(map[string]any)
		if _, ok := features["entities"]; ok {
			t.Error("Expected entities feature to be omitted")
		}
		if kw := features["keywords"].(map[string]any); kw["limit"] != float64(10) {
			t.Errorf("Expected keyword limit 10, got %v", kw["limit"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"entities": [{"type":"Organization","text":"Acme Corp","confidence":0.93}],
			"keywords": [{"text":"confidential information","relevance":0.88}],
			"concepts": [{"text":"Non-disclosure agreement","relevance":0.71}]
		}`))
	}))
	defer server.Close()

	nlu := newWatsonNLU(server.URL+"/", "2022-04-07", server.Client())
	result, err := nlu.Analyze(context.Background(), "text", model.NLUOptions{Keywords: 10, Concepts: 5})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Entities) != 1 || result.Entities[0].Text != "Acme Corp" {
		t.Errorf("Unexpected entities %+v", result.Entities)
	}
	if result.Keywords[0].Relevance != 0.88 {
		t.Errorf("Unexpected keyword relevance %v", result.Keywords[0].Relevance)
	}
	if result.Concepts[0].Text != "Non-disclosure agreement" {
		t.Errorf("Unexpected concept %+v", result.Concepts[0])
	}
}

func TestWatsonNLUAnalyzeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not enough text for language id"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	nlu := newWatsonNLU(server.URL, "v", server.Client())
	_, err := nlu.Analyze(context.Background(), "x", model.NLUOptions{Entities: 50})
	if !errors.Is(err, ErrBackendStatus) {
		t.Errorf("Expected ErrBackendStatus, got %v", err)
	}
}
