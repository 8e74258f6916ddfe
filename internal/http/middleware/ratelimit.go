package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-api-boilerplate/internal/exceptions"
)

const msgRateLimited = "Too many requests, please retry later"

const (
	defaultIdleTTL    = 10 * time.Minute
	defaultSweepEvery = 5000
)

// keyFunc maps a request to its bucket identity, "user:<id>" or "ip:<addr>".
type keyFunc func(*gin.Context) string

// KeyByUserOrIP prefers the principal set by APIKeyGuard and falls back to
// the client IP. When the limiter runs before the guard (as in the router),
// every request is keyed by IP.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(ctxKeyUserID); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithIdleTTL sets how long an unused bucket survives a sweep. Default: 10m.
func WithIdleTTL(d time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		if d > 0 {
			rl.idleTTL = d
		}
	}
}

// WithSweepEvery sets how many lookups happen between sweeps. Default: 5000.
func WithSweepEvery(n uint64) RateLimiterOption {
	return func(rl *RateLimiter) {
		if n > 0 {
			rl.sweepEvery = n
		}
	}
}

// RateLimiter is a process-local token-bucket limiter with one bucket per
// key. Idle buckets are swept during lookups, so memory stays bounded without
// a background goroutine. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	now   func() time.Time

	mu         sync.Mutex
	buckets    map[string]*bucket
	idleTTL    time.Duration
	sweepEvery uint64
	lookups    uint64
}

// NewRateLimiter returns a limiter refilling rps tokens per second up to
// burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc, opts ...RateLimiterOption) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		rps:        rate.Limit(rps),
		burst:      burst,
		keyFn:      keyFn,
		now:        time.Now,
		buckets:    make(map[string]*bucket),
		idleTTL:    defaultIdleTTL,
		sweepEvery: defaultSweepEvery,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// limiterFor returns the bucket for key, creating it on first use. The sweep
// runs before the lookup so a stale bucket for key is replaced, not revived.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.sweepEvery {
		rl.sweepLocked(now)
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.idleTTL {
			delete(rl.buckets, k)
		}
	}
}

// Handler rejects requests over the limit with Retry-After: 1 and a 429
// raised through c.Error for ExceptionFilter to render.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.keyFn(c)
		if rl.limiterFor(key).Allow() {
			c.Next()
			return
		}

		kind, _, _ := strings.Cut(key, ":")
		httpRateLimited.WithLabelValues(kind).Inc()
		c.Header("Retry-After", "1")
		_ = c.Error(exceptions.TooManyRequests(msgRateLimited))
		c.Abort()
	}
}
