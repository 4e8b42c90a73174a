package middleware

import (
	"net"
	"net/http"
	"sync"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/strataweb/strata/pkg/chain"
	"github.com/strataweb/strata/pkg/web"
)

// Limiter decides whether a request identified by key may proceed. A limiter
// may block to smooth traffic (leaky bucket) or reject immediately (token
// bucket); the RateLimit middleware treats false as "reject with 429".
type Limiter interface {
	Allow(key string) bool
}

// KeyFunc extracts the rate-limit bucket key from a request. Requests with
// the same key share a bucket.
type KeyFunc func(*web.Request) string

// KeyByIP buckets requests by client IP address.
func KeyByIP(r *web.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// KeyByPrincipal buckets requests by the authenticated principal set by the
// Auth middleware. Unauthenticated requests share one bucket.
func KeyByPrincipal(r *web.Request) string {
	return Principal(r)
}

// LeakyBucketLimiter smooths traffic using Uber's leaky-bucket limiter: a
// request over the rate blocks until its slot arrives rather than being
// rejected. Allow therefore always reports true.
type LeakyBucketLimiter struct {
	rps      int
	mu       sync.Mutex
	limiters map[string]ratelimit.Limiter
}

// NewLeakyBucketLimiter creates a leaky-bucket limiter allowing rps requests
// per second per key.
func NewLeakyBucketLimiter(rps int) *LeakyBucketLimiter {
	return &LeakyBucketLimiter{
		rps:      rps,
		limiters: make(map[string]ratelimit.Limiter),
	}
}

// Allow takes a slot from the key's bucket, blocking as needed to maintain
// the configured rate.
func (l *LeakyBucketLimiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = ratelimit.New(l.rps)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	lim.Take()
	return true
}

// TokenBucketLimiter rejects requests over the rate using x/time's token
// bucket. Each key gets its own bucket with the configured rate and burst.
type TokenBucketLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewTokenBucketLimiter creates a token-bucket limiter allowing limit events
// per second with the given burst per key.
func NewTokenBucketLimiter(limit rate.Limit, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the key's bucket has a token available now.
func (l *TokenBucketLimiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}

// RateLimit creates a middleware that applies the limiter per bucket key.
// Rejected requests are short-circuited with 429 Too Many Requests.
func RateLimit(limiter Limiter, key KeyFunc, logger *zap.Logger) chain.Middleware {
	if key == nil {
		key = KeyByIP
	}
	return func(r *web.Request, next chain.Next) (*web.Response, error) {
		k := key(r)
		if !limiter.Allow(k) {
			if logger != nil {
				logger.Warn("Rate limit exceeded",
					zap.String("key", k),
					zap.String("method", r.Method),
					zap.String("path", r.Path),
				)
			}
			return web.Error(http.StatusTooManyRequests), nil
		}
		return next(r)
	}
}
