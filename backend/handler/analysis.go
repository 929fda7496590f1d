package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnTengye/clausewise/backend/model"
	"github.com/AnTengye/clausewise/backend/pkg/logger"
	"github.com/AnTengye/clausewise/backend/service"
)

// AnalysisHandler serves synchronous analysis and backend status
type AnalysisHandler struct {
	analyzer DocumentAnalyzer
}

func NewAnalysisHandler(analyzer DocumentAnalyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

type AnalyzeRequest struct {
	Text string `json:"text" binding:"required"`
}

type AnalyzeResponse struct {
	*model.Analysis
	ClausePairs []model.ClausePair `json:"clause_pairs"`
}

// AnalyzeText analyzes the posted text and returns the result directly
func (h *AnalysisHandler) AnalyzeText(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	analysis, err := h.analyzer.Analyze(c.Request.Context(), req.Text)
	if errors.Is(err, service.ErrTextTooShort) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error(c.Request.Context(), "analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{Analysis: analysis, ClausePairs: analysis.Pairs()})
}

// Status reports which backends are available and the resulting tier
func (h *AnalysisHandler) Status(c *gin.Context) {
	avail := h.analyzer.Availability()
	tier := avail.Tier()
	c.JSON(http.StatusOK, gin.H{
		"backends":   avail,
		"tier":       tier,
		"tier_label": tier.Label(),
	})
}
