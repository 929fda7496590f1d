package service

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrNotConfigured is returned when a backend is built without credentials
	ErrNotConfigured = errors.New("backend not configured")
	// ErrModelLoading is the retryable 503 answer of the hosted-inference backend
	ErrModelLoading = errors.New("model is loading")
	// ErrBackendStatus wraps any other non-2xx backend answer
	ErrBackendStatus = errors.New("backend returned error status")
	// ErrEmptyGeneration is returned when a generator answers without text
	ErrEmptyGeneration = errors.New("backend returned no generated text")
	// ErrCacheMiss is returned by ResultCache.Get when nothing is stored
	ErrCacheMiss = errors.New("analysis cache miss")
)

const maxErrorBody = 512

// statusError reads a bounded part of the body into an ErrBackendStatus.
func statusError(backend string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%s: %w: %d %s", backend, ErrBackendStatus, resp.StatusCode, string(body))
}
