package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIsAllowedOrigin(t *testing.T) {
	allowed := []string{"http://localhost:*", "https://ops.example.com"}

	tests := map[string]bool{
		"http://localhost:3000":        true,
		"http://localhost:8080":        true,
		"https://ops.example.com":      true,
		"https://ops.example.com.evil": false,
		"http://ops.example.com":       false,
		"https://localhost:3000":       false,
		"":                             false,
	}

	for origin, want := range tests {
		assert.Equal(t, want, isAllowedOrigin(origin, allowed), "origin %q", origin)
	}
	assert.False(t, isAllowedOrigin("http://localhost:3000", nil))
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORSMiddleware([]string{"http://localhost:*"}))
	router.POST("/api/v1/match", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantCORS   bool
	}{
		{"allowed origin", http.MethodPost, "http://localhost:3000", http.StatusOK, true},
		{"preflight", http.MethodOptions, "http://localhost:3000", http.StatusNoContent, true},
		{"disallowed origin", http.MethodPost, "https://evil.example", http.StatusOK, false},
		{"no origin", http.MethodPost, "", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/match", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if !tt.wantCORS {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
				return
			}
			assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, requestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
			assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	limiter := newIPRateLimiter(60)
	now := time.Now()

	for i := 0; i < 60; i++ {
		if !limiter.allow("10.0.0.1", now) {
			t.Fatalf("request %d denied within burst", i)
		}
	}
	if limiter.allow("10.0.0.1", now) {
		t.Error("request beyond burst allowed")
	}

	// other clients have their own bucket
	if !limiter.allow("10.0.0.2", now) {
		t.Error("second client denied")
	}

	// one token refills per second at 60/min
	if !limiter.allow("10.0.0.1", now.Add(1100*time.Millisecond)) {
		t.Error("request after refill denied")
	}
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	limiter := newIPRateLimiter(10)
	now := time.Now()

	limiter.allow("10.0.0.1", now)
	limiter.allow("10.0.0.2", now.Add(9*time.Minute))
	limiter.allow("10.0.0.3", now.Add(11*time.Minute))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.limiters["10.0.0.1"]; ok {
		t.Error("idle client not evicted")
	}
	if len(limiter.limiters) != 2 {
		t.Errorf("limiters = %d, want 2", len(limiter.limiters))
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(RateLimitMiddleware(0))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
}
