package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/paynet/nexus-liquidity/internal/api/httpx"
)

// tokenBucket refills continuously so low rates are not starved by
// integer truncation between requests.
type tokenBucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
	rate   float64
	burst  float64
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := time.Now()
	tb.tokens += now.Sub(tb.last).Seconds() * tb.rate
	if tb.tokens > tb.burst {
		tb.tokens = tb.burst
	}
	tb.last = now
	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

// RateLimit caps the whole facade at rps requests per second; rps <= 0
// disables limiting. Rejections carry Retry-After and the configured
// limit so callers can back off.
func RateLimit(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	tb := &tokenBucket{
		tokens: float64(rps),
		last:   time.Now(),
		rate:   float64(rps),
		burst:  float64(rps),
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tb.allow() {
				w.Header().Set("Retry-After", "1")
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "request rate exceeded",
					map[string]any{"limit_rps": rps})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
