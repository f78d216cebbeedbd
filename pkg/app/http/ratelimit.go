package http

import (
	"net"
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chainsafe/dao-governance/internal/metrics"
	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
)

// maxTrackedClients bounds the number of per-IP limiters kept in memory.
// The least recently seen client is evicted first.
const maxTrackedClients = 8192

// RateLimiter hands out a token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing ratePerSec requests per second
// per client with the given burst.
func NewRateLimiter(ratePerSec float64, burst int) *RateLimiter {
	cache, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: cache,
		rate:     rate.Limit(ratePerSec),
		burst:    burst,
	}
}

// Allow reports whether a request from ip fits in its budget.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	limiter, ok := rl.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(ip, limiter)
	}
	rl.mu.Unlock()
	return limiter.Allow()
}

// RateLimit returns middleware rejecting clients over budget with 429.
// A non-positive ratePerSec disables limiting. Run it after
// middleware.RealIP so RemoteAddr carries the client address.
func RateLimit(ratePerSec float64, burst int, logger *zap.Logger) func(http.Handler) http.Handler {
	if ratePerSec <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := NewRateLimiter(ratePerSec, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				logger.Warn("Rate limit exceeded",
					zap.String("ip", ip),
					zap.String("path", r.URL.Path))
				metrics.ErrorsTotal.WithLabelValues("api", "rate_limited").Inc()
				w.Header().Set("Retry-After", "1")
				DefaultErrorHandler(w, apperrors.RateLimitedError("too many requests, please retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
