package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter applies a per-client token bucket. The webhook endpoint is
// public, so each caller ip gets its own bucket.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     float64
	burst    float64
}

type visitor struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows rate requests/second with the given burst per
// client. Stale buckets are evicted in the background.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		burst:    float64(burst),
	}
	go rl.evictLoop()
	return rl
}

// Allow reports whether the client may proceed, consuming one token.
func (rl *RateLimiter) Allow(client string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[client]
	if !ok {
		rl.visitors[client] = &visitor{tokens: rl.burst - 1, seen: now}
		return true
	}

	v.tokens += now.Sub(v.seen).Seconds() * rl.rate
	if v.tokens > rl.burst {
		v.tokens = rl.burst
	}
	v.seen = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		rl.mu.Lock()
		for client, v := range rl.visitors {
			if v.seen.Before(cutoff) {
				delete(rl.visitors, client)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects clients over the configured rate with 429.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := r.RemoteAddr
			// chi's RealIP middleware rewrites RemoteAddr behind proxies;
			// X-Real-Ip covers stacks that only set the header.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				client = xri
			}
			if !limiter.Allow(client) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
