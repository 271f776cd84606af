package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/earnko/internal/config"
	"github.com/earnko/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestOriginPolicyResolve(t *testing.T) {
	if got := newOriginPolicy(nil, false).resolve("https://earnko.in"); got != "*" {
		t.Fatalf("empty allow-list acts as wildcard, got %s", got)
	}
	if got := newOriginPolicy([]string{"*"}, true).resolve("https://earnko.in"); got != "https://earnko.in" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	policy := newOriginPolicy([]string{"https://App.earnko.in/", "https://admin.earnko.in"}, false)
	if got := policy.resolve("https://app.earnko.in"); got != "https://app.earnko.in" {
		t.Fatalf("allow-list match should be case and slash insensitive, got %s", got)
	}
	if got := policy.resolve("https://evil.example.com"); got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
	if got := policy.resolve(""); got != "" {
		t.Fatalf("missing origin should be empty, got %s", got)
	}
}

func TestCORSPreflightExposesQuotaHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://app.earnko.in"}}))
	r.POST("/api/v1/links", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/links", nil)
	req.Header.Set("Origin", "https://app.earnko.in")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status want 204 got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch) {
		t.Fatalf("PATCH should be allowed, got %s", w.Header().Get("Access-Control-Allow-Methods"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "Retry-After") {
		t.Fatalf("Retry-After should be exposed, got %s", w.Header().Get("Access-Control-Expose-Headers"))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}

	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req3.Header.Set(requestIDHeader, "bad id\nINJECTED")
	r.ServeHTTP(w3, req3)
	if got := w3.Header().Get(requestIDHeader); got == "" || strings.Contains(got, "INJECTED") {
		t.Fatalf("unsafe request id should be replaced, got %q", got)
	}
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("", nil))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status want 401 got %d", w.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.Success || resp.Code != "unauthorized" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestUserJWTAuthRejectsAdminSignedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 7})
	signed, err := token.SignedString([]byte("another-secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	r := gin.New()
	r.Use(UserJWTAuthMiddleware(config.JWTConfig{SecretKey: "user-secret"}, repository.NewUserRepository(nil)))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for _, header := range []string{"", "Token abc", "Bearer " + signed} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status want 401 got %d", header, w.Code)
		}
	}
}
