package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// idle buckets are swept once this many clients are tracked
	maxTrackedClients = 10_000
	clientIdleTTL     = 10 * time.Minute
)

type rateLimiter interface {
	Allow(key string) bool
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// tokenBucket holds one token bucket per client address.
type tokenBucket struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientBucket
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) *tokenBucket {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &tokenBucket{
		limit:   rate.Limit(ratePerSecond),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (b *tokenBucket) Allow(key string) bool {
	if b == nil {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	bucket, ok := b.clients[key]
	if !ok {
		if len(b.clients) >= maxTrackedClients {
			b.sweep(now)
		}
		bucket = &clientBucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.clients[key] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for longer than clientIdleTTL. Callers hold mu.
func (b *tokenBucket) sweep(now time.Time) {
	for key, bucket := range b.clients {
		if now.Sub(bucket.lastSeen) > clientIdleTTL {
			delete(b.clients, key)
		}
	}
}

// retryAfter is the whole number of seconds until one token is available.
func (b *tokenBucket) retryAfter() int {
	if b == nil || b.limit <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(b.limit))))
}

// clientKey identifies the caller by remote IP, ignoring the source port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(clientKey(r)) {
			next.ServeHTTP(w, r)
			return
		}
		if bucket, ok := limiter.(*tokenBucket); ok {
			w.Header().Set("Retry-After", strconv.Itoa(bucket.retryAfter()))
		}
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
