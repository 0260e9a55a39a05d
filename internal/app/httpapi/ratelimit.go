package httpapi

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
)

// RateLimiter throttles requests per caller identity, falling back to the
// remote address for unauthenticated requests.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewRateLimiter builds a per-key token bucket limiter.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Bounded reset keeps the map from growing without limit.
	if len(rl.limiters) > 10000 {
		rl.limiters = make(map[string]*rate.Limiter)
	}

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Handler returns the rate limiting middleware handler.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := Identity(r.Context())
		if key == "" {
			key = r.RemoteAddr
		}

		if !rl.limiter(key).Allow() {
			writeError(w, &lederr.ServiceError{
				Code:       lederr.CodeRateLimited,
				Message:    "too many requests",
				HTTPStatus: http.StatusTooManyRequests,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
