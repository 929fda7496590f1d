package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type observation struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{method, route, status})
}

func (o *recordingObserver) last() observation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seen[len(o.seen)-1]
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRequestLoggerMiddleware(t *testing.T) {
	buf := captureLogs(t)
	observer := &recordingObserver{}

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger(observer))
	router.GET("/api/contracts/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.GET("/error", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
	})
	router.GET("/server-error", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	})

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedRoute  string
		logLevel       string
	}{
		{"success request", "/api/contracts/abc", http.StatusOK, "/api/contracts/:id", "INFO"},
		{"client error", "/error", http.StatusBadRequest, "/error", "WARN"},
		{"server error", "/server-error", http.StatusInternalServerError, "/server-error", "ERROR"},
		{"unknown route", "/nowhere", http.StatusNotFound, unmatchedRoute, "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			req := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			logOutput := buf.String()
			if !strings.Contains(logOutput, "request completed") {
				t.Error("Expected 'request completed' in log")
			}
			if !strings.Contains(logOutput, tt.path) {
				t.Errorf("Expected path '%s' in log", tt.path)
			}
			if !strings.Contains(logOutput, "level="+tt.logLevel) {
				t.Errorf("Expected log level '%s' in log", tt.logLevel)
			}

			got := observer.last()
			if got.route != tt.expectedRoute || got.status != tt.expectedStatus || got.method != "GET" {
				t.Errorf("Unexpected observation: %+v", got)
			}
		})
	}
}

func TestRequestLoggerWithQueryAndTenant(t *testing.T) {
	buf := captureLogs(t)

	router := gin.New()
	router.Use(RequestLogger(nil))
	router.Use(func(c *gin.Context) {
		c.Set("tenant", "firm-a")
		c.Next()
	})
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	req := httptest.NewRequest("GET", "/test?page=2", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "query=") {
		t.Error("Expected query parameters in log")
	}
	if !strings.Contains(logOutput, "tenant=firm-a") {
		t.Error("Expected tenant in log")
	}
}
