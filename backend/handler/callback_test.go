package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AnTengye/clausewise/backend/config"
	"github.com/AnTengye/clausewise/backend/model"
	"github.com/AnTengye/clausewise/backend/service"
)

func newTestCallbackHandler(contracts *ContractHandler, uid, seed string) *CallbackHandler {
	mineru := service.NewMineruService(&config.MineruConfig{Seed: seed})
	return NewCallbackHandler(mineru, contracts, uid, seed)
}

func postCallback(t *testing.T, h *CallbackHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/callback", h.HandleCallback)

	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	h.contracts.Wait()
	return w
}

func TestCallbackHandlerDoneRunsAnalysis(t *testing.T) {
	mdServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(agreementText))
	}))
	defer mdServer.Close()

	contracts := newTestContractHandler(newFakeObjectStore(), nil)
	seedContract(t, contracts, &model.Contract{ID: "callback-done", Tenant: "tenant1", Status: model.StatusExtracting})
	h := newTestCallbackHandler(contracts, "", "")

	content := `{"task_id":"task-1","data_id":"callback-done","state":"done","full_pages":[{"page_no":1,"md_url":"` + mdServer.URL + `/full.md"}]}`
	w := postCallback(t, h, CallbackRequest{Checksum: "unused", Content: content})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	contract := contracts.store.Get("callback-done")
	if contract.Status != model.StatusCompleted {
		t.Fatalf("Expected status completed, got %s (%s)", contract.Status, contract.ErrorMsg)
	}
	if contract.Analysis.DocumentType != model.DocumentTypeNDA {
		t.Errorf("Expected NDA, got %s", contract.Analysis.DocumentType)
	}
}

func TestCallbackHandlerIgnoresHandledContract(t *testing.T) {
	contracts := newTestContractHandler(newFakeObjectStore(), nil)
	seedContract(t, contracts, &model.Contract{ID: "callback-handled", Tenant: "tenant1", Status: model.StatusCompleted})
	h := newTestCallbackHandler(contracts, "", "")

	content := `{"task_id":"task-1","data_id":"callback-handled","state":"failed","err_msg":"late failure"}`
	postCallback(t, h, CallbackRequest{Content: content})

	if got := contracts.store.Get("callback-handled").Status; got != model.StatusCompleted {
		t.Errorf("Expected completed contract to stay completed, got %s", got)
	}
}

func TestCallbackHandlerDoneWithoutMarkdown(t *testing.T) {
	contracts := newTestContractHandler(newFakeObjectStore(), nil)
	seedContract(t, contracts, &model.Contract{ID: "callback-empty", Tenant: "tenant1", Status: model.StatusExtracting})
	h := newTestCallbackHandler(contracts, "", "")

	content := `{"task_id":"task-1","data_id":"callback-empty","state":"done","full_pages":[]}`
	postCallback(t, h, CallbackRequest{Content: content})

	contract := contracts.store.Get("callback-empty")
	if contract.Status != model.StatusFailed {
		t.Errorf("Expected status failed, got %s", contract.Status)
	}
	if contract.ErrorMsg != service.ErrNoMarkdown.Error() {
		t.Errorf("Unexpected error msg %q", contract.ErrorMsg)
	}
}

func TestCallbackHandlerFailedState(t *testing.T) {
	contracts := newTestContractHandler(newFakeObjectStore(), nil)
	seedContract(t, contracts, &model.Contract{ID: "callback-failed", Tenant: "tenant1", Status: model.StatusExtracting})
	h := newTestCallbackHandler(contracts, "", "")

	content := `{"task_id":"task-1","data_id":"callback-failed","state":"failed","err_msg":"extraction failed"}`
	w := postCallback(t, h, CallbackRequest{Content: content})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	updated := contracts.store.Get("callback-failed")
	if updated.Status != model.StatusFailed {
		t.Errorf("Expected status '%s', got '%s'", model.StatusFailed, updated.Status)
	}
	if updated.ErrorMsg != "extraction failed" {
		t.Errorf("Expected error msg 'extraction failed', got '%s'", updated.ErrorMsg)
	}
}

func TestCallbackHandlerMatchesByTaskID(t *testing.T) {
	contracts := newTestContractHandler(newFakeObjectStore(), nil)
	seedContract(t, contracts, &model.Contract{
		ID:            "callback-by-task",
		Tenant:        "tenant1",
		Status:        model.StatusExtracting,
		ExtractTaskID: "task-77",
	})
	h := newTestCallbackHandler(contracts, "", "")

	content := `{"task_id":"task-77","state":"failed","err_msg":"unsupported layout"}`
	w := postCallback(t, h, CallbackRequest{Content: content})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := contracts.store.Get("callback-by-task"); got.Status != model.StatusFailed || got.ErrorMsg != "unsupported layout" {
		t.Errorf("Expected failed contract with error, got %s (%s)", got.Status, got.ErrorMsg)
	}
}

func TestCallbackHandlerRejectedRequests(t *testing.T) {
	contracts := newTestContractHandler(newFakeObjectStore(), nil)
	seedContract(t, contracts, &model.Contract{ID: "callback-auth", Tenant: "tenant1", Status: model.StatusExtracting})

	content := `{"task_id":"task-1","data_id":"callback-auth","state":"failed","err_msg":"x"}`
	sum := sha256.Sum256([]byte("uid-1" + "seed-1" + content))
	valid := hex.EncodeToString(sum[:])

	tests := []struct {
		name           string
		handler        *CallbackHandler
		body           any
		expectedStatus int
	}{
		{"invalid json", newTestCallbackHandler(contracts, "", ""), "not an object", http.StatusBadRequest},
		{"invalid content", newTestCallbackHandler(contracts, "", ""), CallbackRequest{Content: "invalid json"}, http.StatusBadRequest},
		{"unknown contract", newTestCallbackHandler(contracts, "", ""), CallbackRequest{Content: `{"data_id":"missing","state":"done"}`}, http.StatusNotFound},
		{"bad checksum", newTestCallbackHandler(contracts, "uid-1", "seed-1"), CallbackRequest{Checksum: "deadbeef", Content: content}, http.StatusUnauthorized},
		{"good checksum", newTestCallbackHandler(contracts, "uid-1", "seed-1"), CallbackRequest{Checksum: valid, Content: content}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postCallback(t, tt.handler, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}
