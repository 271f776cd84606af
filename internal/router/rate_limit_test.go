package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestKeyByIPAndUsername(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"username":" Root "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "10.0.0.7:5678"

	if key := KeyByIPAndJSONField("username")(c); key != "root|10.0.0.7" {
		t.Fatalf("key want root|10.0.0.7 got %s", key)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), " Root ") {
		t.Fatalf("request body should be restored, got %s", body)
	}
}

func TestKeyByUserFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/links", nil)
	c.Request.RemoteAddr = "10.0.0.8:1234"

	if key := KeyByUser(c); key != "10.0.0.8" {
		t.Fatalf("anonymous key want ip got %s", key)
	}
	c.Set("user_id", uint(42))
	if key := KeyByUser(c); key != "user:42" {
		t.Fatalf("user key want user:42 got %s", key)
	}
}

func TestDecideWindow(t *testing.T) {
	rule := RateLimitRule{WindowSeconds: 60, MaxRequests: 30}
	cases := []struct {
		name      string
		count     int64
		ttl       int64
		blocked   bool
		remaining int
		retry     int
	}{
		{name: "first", count: 1, ttl: 60, remaining: 29},
		{name: "at limit", count: 30, ttl: 12, remaining: 0},
		{name: "over limit", count: 31, ttl: 12, blocked: true, retry: 12},
		{name: "missing ttl", count: 40, ttl: -1, blocked: true, retry: 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := decideWindow(rule, tc.count, tc.ttl)
			if d.blocked != tc.blocked || d.remaining != tc.remaining || d.retryAfter != tc.retry {
				t.Fatalf("decision want blocked=%v remaining=%d retry=%d got %+v", tc.blocked, tc.remaining, tc.retry, d)
			}
		})
	}
}

func TestRateLimitMiddlewarePassesWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/r/abc", func(c *gin.Context) {
		c.Status(http.StatusFound)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/r/abc", nil))
		if w.Code != http.StatusFound {
			t.Fatalf("request %d status want 302 got %d", i, w.Code)
		}
	}
}

func TestRateLimitMiddlewareFailsOpenOnRedisError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := gin.New()
	r.Use(RateLimitMiddleware(client, RateLimitRule{Prefix: "rl:test", WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.POST("/api/v1/links", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/links", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("redis outage should not block, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "" {
		t.Fatalf("quota headers should be absent when redis is unavailable")
	}
}
