package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/AnTengye/clausewise/backend/config"
)

// MinerU task states
const (
	TaskStateDone    = "done"
	TaskStateFailed  = "failed"
	TaskStateRunning = "running"
)

const mineruMarkdownFile = "full.md"

var (
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrExtractionTimeout = errors.New("text extraction timed out")
	ErrNoMarkdown        = errors.New("no markdown found in extraction result")
)

// MineruService turns PDF and DOCX uploads into markdown text
type MineruService struct {
	config     *config.MineruConfig
	httpClient *http.Client
}

// MineruTaskRequest represents the request to create an extraction task
type MineruTaskRequest struct {
	URL          string `json:"url"`
	ModelVersion string `json:"model_version"`
	Callback     string `json:"callback,omitempty"`
	Seed         string `json:"seed,omitempty"`
	DataID       string `json:"data_id,omitempty"`
}

// MineruTaskResponse represents the response from task creation
type MineruTaskResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

// MineruTaskStatusResponse represents the task status query response
type MineruTaskStatusResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	TraceID string `json:"trace_id"`
	Data    struct {
		TaskID          string `json:"task_id"`
		DataID          string `json:"data_id"`
		State           string `json:"state"` // pending, running, done, failed, converting
		FullZipURL      string `json:"full_zip_url,omitempty"`
		ErrorMsg        string `json:"err_msg,omitempty"`
		ExtractProgress struct {
			ExtractedPages int `json:"extracted_pages"`
			TotalPages     int `json:"total_pages"`
		} `json:"extract_progress,omitempty"`
	} `json:"data"`
}

func NewMineruService(cfg *config.MineruConfig) *MineruService {
	return &MineruService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// CreateTask submits fileURL for extraction. dataID comes back in callbacks.
func (s *MineruService) CreateTask(ctx context.Context, fileURL, dataID string) (*MineruTaskResponse, error) {
	reqBody := MineruTaskRequest{
		URL:          fileURL,
		ModelVersion: s.config.ModelVersion,
		DataID:       dataID,
	}
	if s.config.CallbackURL != "" {
		reqBody.Callback = s.config.CallbackURL
		reqBody.Seed = s.config.Seed
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL+"/extract/task", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result MineruTaskResponse
	if err := s.doJSON(req, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("MinerU API error: %s", result.Message)
	}
	return &result, nil
}

// GetTaskStatus queries the status of a task
func (s *MineruService) GetTaskStatus(ctx context.Context, taskID string) (*MineruTaskStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/extract/task/%s", s.config.APIURL, taskID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result MineruTaskStatusResponse
	if err := s.doJSON(req, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("MinerU API error: %s", result.Message)
	}
	return &result, nil
}

func (s *MineruService) doJSON(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Accept", "*/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// WaitForText polls the task until it finishes and returns the markdown text.
func (s *MineruService) WaitForText(ctx context.Context, taskID string) (string, error) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for i := 1; i <= s.config.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, err := s.GetTaskStatus(ctx, taskID)
		if err != nil {
			slog.Warn("mineru poll failed", "task_id", taskID, "attempt", i, "error", err)
			continue
		}

		switch status.Data.State {
		case TaskStateDone:
			if status.Data.FullZipURL == "" {
				return "", ErrNoMarkdown
			}
			return s.FetchMarkdown(ctx, status.Data.FullZipURL)
		case TaskStateFailed:
			return "", fmt.Errorf("%w: %s", ErrExtractionFailed, status.Data.ErrorMsg)
		case TaskStateRunning:
			slog.Debug("mineru task running", "task_id", taskID,
				"pages", status.Data.ExtractProgress.ExtractedPages,
				"total_pages", status.Data.ExtractProgress.TotalPages)
		}
	}
	return "", ErrExtractionTimeout
}

// VerifyCallback checks checksum = SHA256(uid + seed + content)
func (s *MineruService) VerifyCallback(checksum, content string, uid string) bool {
	hash := sha256.Sum256([]byte(uid + s.config.Seed + content))
	return checksum == hex.EncodeToString(hash[:])
}

// FetchMarkdownURL downloads a markdown document directly
func (s *MineruService) FetchMarkdownURL(ctx context.Context, mdURL string) (string, error) {
	data, err := s.download(ctx, mdURL)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FetchMarkdown downloads the result ZIP and returns full.md, or the first
// markdown file if full.md is absent.
func (s *MineruService) FetchMarkdown(ctx context.Context, zipURL string) (string, error) {
	zipData, err := s.download(ctx, zipURL)
	if err != nil {
		return "", err
	}

	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return "", fmt.Errorf("failed to open ZIP: %w", err)
	}

	var fallback *zip.File
	for _, file := range zipReader.File {
		if path.Base(file.Name) == mineruMarkdownFile {
			return readZipFile(file)
		}
		if fallback == nil && strings.HasSuffix(file.Name, ".md") {
			fallback = file
		}
	}
	if fallback != nil {
		return readZipFile(fallback)
	}
	return "", ErrNoMarkdown
}

func (s *MineruService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("mineru", resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download: %w", err)
	}
	return data, nil
}

func readZipFile(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file.Name, err)
	}
	return string(content), nil
}
