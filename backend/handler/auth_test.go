package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/AnTengye/clausewise/backend/config"
	"github.com/AnTengye/clausewise/backend/middleware"
)

const testJWTSecret = "test-secret"

func newTestAuthRouter() *gin.Engine {
	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: testJWTSecret, TokenExpireHours: 24},
		Users: []config.User{
			{Username: "alice", Password: "correct horse", Tenant: "firm-a"},
			{Username: "bob", Password: "battery staple", Tenant: "firm-b"},
		},
	}
	h := NewAuthHandler(cfg)

	router := gin.New()
	router.POST("/login", h.Login)
	authed := router.Group("/", middleware.AuthMiddleware(&cfg.Auth))
	authed.GET("/me", h.GetCurrentUser)
	return router
}

func postLogin(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandlerLoginRejects(t *testing.T) {
	router := newTestAuthRouter()

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"unknown user", `{"username":"mallory","password":"correct horse"}`, http.StatusUnauthorized},
		{"wrong password", `{"username":"alice","password":"battery staple"}`, http.StatusUnauthorized},
		{"password prefix", `{"username":"alice","password":"correct"}`, http.StatusUnauthorized},
		{"empty password", `{"username":"alice","password":""}`, http.StatusBadRequest},
		{"missing password", `{"username":"alice"}`, http.StatusBadRequest},
		{"not json", `invalid json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postLogin(router, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if strings.Contains(w.Body.String(), "token") {
				t.Error("Expected no token in a rejected login")
			}
		})
	}
}

func TestAuthHandlerLoginIssuesTenantToken(t *testing.T) {
	router := newTestAuthRouter()

	w := postLogin(router, `{"username":"bob","password":"battery staple"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Username != "bob" || resp.Tenant != "firm-b" || resp.ExpiresAt == "" {
		t.Errorf("Unexpected login response: %+v", resp)
	}

	claims := &middleware.Claims{}
	if _, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	}); err != nil {
		t.Fatalf("Expected token to verify: %v", err)
	}
	if claims.Tenant != "firm-b" {
		t.Errorf("Expected tenant claim 'firm-b', got '%s'", claims.Tenant)
	}

	// The issued token works against a protected route
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)

	if me.Code != http.StatusOK {
		t.Fatalf("Expected status 200 from /me, got %d", me.Code)
	}
	var identity map[string]string
	if err := json.Unmarshal(me.Body.Bytes(), &identity); err != nil {
		t.Fatalf("Failed to parse /me response: %v", err)
	}
	if identity["username"] != "bob" || identity["tenant"] != "firm-b" {
		t.Errorf("Unexpected identity: %v", identity)
	}
}
