package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterAllow(t *testing.T) {
	current := time.Now()
	limiter := NewRateLimiter(3, time.Minute)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		if !limiter.Allow("client-a") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("client-a") {
		t.Error("Fourth request within the window should be rejected")
	}

	// Other clients have their own window.
	if !limiter.Allow("client-b") {
		t.Error("Different client should be allowed")
	}

	// Window slides: after a minute the old entries expire.
	current = current.Add(61 * time.Second)
	if !limiter.Allow("client-a") {
		t.Error("Request after window expiry should be allowed")
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	current := time.Now()
	limiter := NewRateLimiter(3, time.Minute)
	limiter.now = func() time.Time { return current }

	limiter.Allow("client-a")
	limiter.Allow("client-b")
	if len(limiter.clients) != 2 {
		t.Fatalf("Expected 2 tracked clients, got %d", len(limiter.clients))
	}

	// client-a goes idle; a later request from anyone sweeps its key.
	current = current.Add(2 * time.Minute)
	limiter.Allow("client-b")

	if _, tracked := limiter.clients["client-a"]; tracked {
		t.Error("Expected idle client key to be evicted")
	}
	if _, tracked := limiter.clients["client-b"]; !tracked {
		t.Error("Expected active client key to be kept")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)

	limiter := NewRateLimiter(2, time.Minute)

	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 over the limit, got %d", w.Code)
	}
}
