package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(key string) bool
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per caller and forgets idle callers.
type KeyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

// NewKeyedLimiter allows requests events per window per key, plus burst.
// Non-positive arguments fall back to one event per second with a burst of one.
func NewKeyedLimiter(requests int, window time.Duration, burst int) *KeyedLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		idle:    5 * time.Minute,
		now:     time.Now,
	}
}

// Allow consumes one token from key's bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	for k, other := range l.buckets {
		if now.Sub(other.lastSeen) > l.idle {
			delete(l.buckets, k)
		}
	}
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Limit rejects requests over the limiter's budget with 429. Buckets are
// keyed by scope and client address so login and pairing budgets are separate.
func Limit(limiter RateLimiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow(scope+":"+ClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP prefers the first X-Forwarded-For hop, then the remote address.
func ClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
