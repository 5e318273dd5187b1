package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter throttles callers by IP with a token bucket per caller. It
// fronts the Chattigo webhook, whose gateway retries aggressively when a
// dialogue turn is slow, so the limit is per source, never global.
type RateLimiter struct {
	mu      sync.Mutex
	callers map[string]*tokenBucket
	rate    float64
	burst   int
	now     func() time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows rate requests per second with the given burst per
// caller. A background sweep drops callers idle for over ten minutes.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		callers: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
	go rl.sweep()
	return rl
}

// Allow reports whether a request from ip is within the limit, consuming
// one token when it is.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.callers[ip]
	if !ok {
		b = &tokenBucket{tokens: float64(rl.burst), seen: now}
		rl.callers[ip] = b
	}

	b.tokens += now.Sub(b.seen).Seconds() * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := rl.now().Add(-10 * time.Minute)
		for ip, b := range rl.callers {
			if b.seen.Before(cutoff) {
				delete(rl.callers, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects over-limit requests with 429 Too Many Requests. The
// caller key is X-Real-Ip when chi's RealIP middleware has set it, the raw
// remote address otherwise.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	return NewRateLimiter(rate, burst).Handler
}

// Handler is the middleware form of an existing limiter.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if xri := r.Header.Get("X-Real-Ip"); xri != "" {
			ip = xri
		}
		if !rl.Allow(ip) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
