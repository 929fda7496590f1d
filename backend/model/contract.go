package model

import (
	"time"
)

// Contract represents an uploaded legal document and its analysis
type Contract struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Tenant        string    `json:"tenant"`
	Format        string    `json:"format"` // pdf, docx, txt
	ObjectName    string    `json:"object_name"`
	FileURL       string    `json:"file_url"`
	Status        string    `json:"status"` // pending, extracting, analyzing, completed, failed
	ExtractTaskID string    `json:"extract_task_id,omitempty"`
	Analysis      *Analysis `json:"analysis,omitempty"`
	ErrorMsg      string    `json:"error_msg,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ContractStatus constants
const (
	StatusPending    = "pending"
	StatusExtracting = "extracting"
	StatusAnalyzing  = "analyzing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Supported upload formats
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatTXT  = "txt"
)

// IsTerminal reports whether no further processing will happen for the contract
func (c *Contract) IsTerminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusFailed
}
