package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterBurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be within burst", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("request over burst should be denied")
	}
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("first client should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("first client should be exhausted")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("second client has its own bucket")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(2, 1)

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("first request should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("bucket should be empty")
	}

	// Backdate the visitor instead of sleeping; one second at 2 tokens/sec
	// refills past the single-token burst.
	rl.mu.Lock()
	rl.visitors["10.0.0.1"].seen = time.Now().Add(-time.Second)
	rl.mu.Unlock()

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("bucket should have refilled")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimit(1, 1)(next)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/webhook", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.7")

	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = httptest.NewRecorder()
	limited.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}

	other := httptest.NewRequest(http.MethodPost, "/api/v1/voice/webhook", nil)
	other.Header.Set("X-Real-Ip", "203.0.113.8")
	rr = httptest.NewRecorder()
	limited.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Fatalf("different client status = %d, want %d", rr.Code, http.StatusOK)
	}
}
