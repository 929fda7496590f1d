package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnTengye/clausewise/backend/model"
	"github.com/AnTengye/clausewise/backend/pkg/logger"
	"github.com/AnTengye/clausewise/backend/service"
)

// CallbackHandler receives extraction results pushed by MinerU
type CallbackHandler struct {
	mineruService *service.MineruService
	contracts     *ContractHandler
	uid           string
	verify        bool
}

// NewCallbackHandler verifies checksums when both uid and seed are configured.
func NewCallbackHandler(mineruSvc *service.MineruService, contracts *ContractHandler, uid, seed string) *CallbackHandler {
	return &CallbackHandler{
		mineruService: mineruSvc,
		contracts:     contracts,
		uid:           uid,
		verify:        uid != "" && seed != "",
	}
}

type CallbackRequest struct {
	Checksum string `json:"checksum"`
	Content  string `json:"content"`
}

type CallbackContent struct {
	TaskID     string `json:"task_id"`
	DataID     string `json:"data_id"`
	State      string `json:"state"`
	FullZipURL string `json:"full_zip_url"`
	FullPages  []struct {
		PageNo int    `json:"page_no"`
		MDURL  string `json:"md_url"`
	} `json:"full_pages"`
	ErrorMsg string `json:"err_msg"`
}

// HandleCallback records the task outcome and starts the analysis
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if h.verify && !h.mineruService.VerifyCallback(req.Checksum, req.Content, h.uid) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid checksum"})
		return
	}

	var content CallbackContent
	if err := json.Unmarshal([]byte(req.Content), &content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format"})
		return
	}

	// DataID is the contract ID; older tasks are matched by task ID
	store := h.contracts.store
	contract := store.Get(content.DataID)
	if contract == nil && content.TaskID != "" {
		contract = store.FindByTaskID(content.TaskID)
	}
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}
	ctx := logger.WithContractID(c.Request.Context(), contract.ID)

	switch content.State {
	case service.TaskStateDone:
		h.contracts.goProcess(ctx, contract.ID, func(ctx context.Context) {
			text, err := h.fetchText(ctx, content)
			if err != nil {
				if store.Transition(contract.ID, model.StatusExtracting, model.StatusFailed, err.Error()) {
					logger.Warn(ctx, "failed to fetch extracted text", "error", err)
				}
				return
			}
			h.contracts.completeExtraction(ctx, contract.ID, contract.Tenant, text)
		})
	case service.TaskStateFailed:
		store.Transition(contract.ID, model.StatusExtracting, model.StatusFailed, content.ErrorMsg)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Callback received"})
}

func (h *CallbackHandler) fetchText(ctx context.Context, content CallbackContent) (string, error) {
	if content.FullZipURL != "" {
		return h.mineruService.FetchMarkdown(ctx, content.FullZipURL)
	}
	for _, page := range content.FullPages {
		if page.MDURL != "" {
			return h.mineruService.FetchMarkdownURL(ctx, page.MDURL)
		}
	}
	return "", service.ErrNoMarkdown
}
