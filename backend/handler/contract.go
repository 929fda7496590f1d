package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AnTengye/clausewise/backend/middleware"
	"github.com/AnTengye/clausewise/backend/model"
	"github.com/AnTengye/clausewise/backend/pkg/logger"
	"github.com/AnTengye/clausewise/backend/service"
)

const processTimeout = 15 * time.Minute

// ObjectStore keeps uploaded originals and analysis reports
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, objectName string) (string, error)
	UploadReport(ctx context.Context, tenant, id string, analysis *model.Analysis) error
	GetReport(ctx context.Context, tenant, id string) (*model.Analysis, error)
	DeleteDocument(ctx context.Context, tenant, id, objectName string) error
}

// TextExtractor turns a PDF or DOCX reachable at a URL into text
type TextExtractor interface {
	CreateTask(ctx context.Context, fileURL, dataID string) (*service.MineruTaskResponse, error)
	WaitForText(ctx context.Context, taskID string) (string, error)
}

// DocumentAnalyzer runs the analysis pipeline
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, raw string) (*model.Analysis, error)
	Availability() model.Availability
}

type ContractHandler struct {
	objects     ObjectStore
	extractor   TextExtractor
	analyzer    DocumentAnalyzer
	store       *service.ContractStore
	maxFileSize int64
	wg          sync.WaitGroup
}

func NewContractHandler(objects ObjectStore, extractor TextExtractor, analyzer DocumentAnalyzer, maxFileSize int64) *ContractHandler {
	return &ContractHandler{
		objects:     objects,
		extractor:   extractor,
		analyzer:    analyzer,
		store:       service.GetContractStore(),
		maxFileSize: maxFileSize,
	}
}

// Wait blocks until background processing has finished
func (h *ContractHandler) Wait() {
	h.wg.Wait()
}

// Upload stores the file and starts extraction and analysis in the background
func (h *ContractHandler) Upload(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	format, ok := service.DetectFormat(header.Filename)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, DOCX and TXT files are allowed"})
		return
	}
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds the maximum upload size"})
		return
	}

	// Text files are analyzed from memory, so keep the bytes.
	var raw []byte
	var body io.Reader = file
	if format == model.FormatTXT {
		raw, err = io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		body = bytes.NewReader(raw)
	} else if format == model.FormatPDF && !looksLikePDF(file) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
		return
	}

	id := uuid.New().String()
	objectName := service.OriginalObjectName(tenant, id, header.Filename)
	ctx := c.Request.Context()

	if err := h.objects.UploadFile(ctx, objectName, body, header.Size, service.ContentType(format)); err != nil {
		logger.Error(ctx, "upload failed", "object", objectName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	fileURL, err := h.objects.GetPresignedURL(ctx, objectName)
	if err != nil {
		logger.Error(ctx, "presign failed", "object", objectName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate URL"})
		return
	}

	now := time.Now()
	h.store.Save(&model.Contract{
		ID:         id,
		Filename:   header.Filename,
		Tenant:     tenant,
		Format:     format,
		ObjectName: objectName,
		FileURL:    fileURL,
		Status:     model.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})

	h.goProcess(ctx, id, func(ctx context.Context) {
		if format == model.FormatTXT {
			h.processText(ctx, id, tenant, raw)
		} else {
			h.processExtraction(ctx, id, tenant, fileURL)
		}
	})

	c.JSON(http.StatusOK, gin.H{
		"id":       id,
		"filename": header.Filename,
		"format":   format,
		"file_url": fileURL,
		"status":   model.StatusPending,
	})
}

// looksLikePDF sniffs the header and rewinds the file
func looksLikePDF(file io.ReadSeeker) bool {
	buffer := make([]byte, 512)
	n, _ := io.ReadFull(file, buffer)
	file.Seek(0, io.SeekStart)
	detected := http.DetectContentType(buffer[:n])
	return detected == "application/pdf" || detected == "application/octet-stream"
}

// goProcess runs fn in the background, detached from the request but
// carrying its log fields.
func (h *ContractHandler) goProcess(ctx context.Context, id string, fn func(ctx context.Context)) {
	bg := logger.WithContractID(context.WithoutCancel(ctx), id)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(bg, processTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (h *ContractHandler) processText(ctx context.Context, id, tenant string, raw []byte) {
	text, err := service.DecodePlainText(raw)
	if err != nil {
		h.fail(ctx, id, err)
		return
	}
	if !h.store.UpdateStatus(id, model.StatusAnalyzing, "") {
		return
	}
	h.analyze(ctx, id, tenant, text)
}

func (h *ContractHandler) processExtraction(ctx context.Context, id, tenant, fileURL string) {
	if h.extractor == nil {
		h.fail(ctx, id, errors.New("text extraction is not configured"))
		return
	}

	resp, err := h.extractor.CreateTask(ctx, fileURL, id)
	if err != nil {
		h.fail(ctx, id, err)
		return
	}
	taskID := resp.Data.TaskID
	h.store.SetExtractTaskID(id, taskID)
	logger.Info(ctx, "extraction task created", "task_id", taskID)

	text, err := h.extractor.WaitForText(ctx, taskID)
	if err != nil {
		if h.store.Transition(id, model.StatusExtracting, model.StatusFailed, err.Error()) {
			logger.Warn(ctx, "contract processing failed", "error", err)
		}
		return
	}
	h.completeExtraction(ctx, id, tenant, text)
}

// completeExtraction analyzes extracted text. The poller and the callback
// race for the same contract; only the first one to arrive runs the analysis.
func (h *ContractHandler) completeExtraction(ctx context.Context, id, tenant, text string) {
	if !h.store.Transition(id, model.StatusExtracting, model.StatusAnalyzing, "") {
		logger.Debug(ctx, "contract already handled, skipping analysis")
		return
	}
	h.analyze(ctx, id, tenant, text)
}

// analyze runs the pipeline on text and records the outcome
func (h *ContractHandler) analyze(ctx context.Context, id, tenant, text string) {
	analysis, err := h.analyzer.Analyze(ctx, text)
	if err != nil {
		h.fail(ctx, id, err)
		return
	}

	// A contract deleted during analysis stays deleted.
	if !h.store.SetAnalysis(id, analysis) {
		return
	}
	if err := h.objects.UploadReport(ctx, tenant, id, analysis); err != nil {
		logger.Warn(ctx, "failed to store analysis report", "error", err)
	}
	logger.Info(ctx, "contract analyzed", "document_type", analysis.DocumentType, "tier", analysis.Tier)
}

func (h *ContractHandler) fail(ctx context.Context, id string, err error) {
	logger.Warn(ctx, "contract processing failed", "error", err)
	h.store.UpdateStatus(id, model.StatusFailed, err.Error())
}

// List returns the tenant's contracts without analysis bodies
func (h *ContractHandler) List(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	contracts := h.store.GetByTenant(tenant)

	result := make([]gin.H, len(contracts))
	for i, contract := range contracts {
		item := gin.H{
			"id":         contract.ID,
			"filename":   contract.Filename,
			"format":     contract.Format,
			"status":     contract.Status,
			"created_at": contract.CreatedAt.Format(time.RFC3339),
			"updated_at": contract.UpdatedAt.Format(time.RFC3339),
		}
		if contract.Analysis != nil {
			item["document_type"] = contract.Analysis.DocumentType
			item["tier"] = contract.Analysis.Tier
		}
		result[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Get returns a single contract with its analysis
func (h *ContractHandler) Get(c *gin.Context) {
	contract := h.store.GetForTenant(c.Param("id"), middleware.GetTenant(c))
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	resp := gin.H{"contract": contract}
	if contract.Analysis != nil {
		resp["clauses"] = contract.Analysis.Pairs()
	}
	c.JSON(http.StatusOK, resp)
}

// GetStatus returns the processing status of a contract
func (h *ContractHandler) GetStatus(c *gin.Context) {
	contract := h.store.GetForTenant(c.Param("id"), middleware.GetTenant(c))
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        contract.ID,
		"status":    contract.Status,
		"error_msg": contract.ErrorMsg,
	})
}

// Report serves the analysis as a JSON download. Reports outlive the
// in-memory record, so object storage is consulted when the record is gone.
func (h *ContractHandler) Report(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	var analysis *model.Analysis
	if contract := h.store.GetForTenant(id, tenant); contract != nil {
		if contract.Analysis == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Analysis not finished", "status": contract.Status})
			return
		}
		analysis = contract.Analysis
	} else {
		report, err := h.objects.GetReport(c.Request.Context(), tenant, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		analysis = report
	}

	c.Header("Content-Disposition", `attachment; filename="`+id+`-analysis.json"`)
	c.JSON(http.StatusOK, analysis)
}

// Delete removes the record and its stored objects
func (h *ContractHandler) Delete(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	contract := h.store.GetForTenant(c.Param("id"), tenant)
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	if err := h.objects.DeleteDocument(c.Request.Context(), tenant, contract.ID, contract.ObjectName); err != nil {
		logger.Warn(c.Request.Context(), "failed to delete stored objects", "contract_id", contract.ID, "error", err)
	}
	h.store.Delete(contract.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
}
