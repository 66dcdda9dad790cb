// Package middleware provides the HTTP middleware chain for the API.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sliea/antennadesk/internal/metrics"
)

// maxBuckets bounds the number of tracked keys per limiter.
const maxBuckets = 100_000

// KeyFunc derives the rate-limit key for a request.
type KeyFunc func(c *gin.Context) string

// ByClientIP keys on the client address. Proxy headers are not trusted
// (see SetTrustedProxies in the router), so the address cannot be spoofed.
func ByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByPrincipal keys on the authenticated principal and falls back to the
// client address before authentication has run.
func ByPrincipal(c *gin.Context) string {
	if pid := c.GetString(PrincipalIDKey); pid != "" {
		return "principal:" + pid
	}

	return ByClientIP(c)
}

// LimitConfig describes one token-bucket limiter.
type LimitConfig struct {
	// Name labels the limiter in metrics and logs.
	Name string
	// Rate is the sustained number of requests per second.
	Rate float64
	// Burst is the bucket capacity.
	Burst int
	// Key selects the bucket; ByClientIP when nil.
	Key KeyFunc
}

// Limiter is a keyed token-bucket rate limiter.
type Limiter struct {
	cfg     LimitConfig
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// take refills the bucket for the time since it was last seen and consumes
// one token. On refusal it returns how long until a token is available.
func (b *bucket) take(now time.Time, rate, burst float64) (bool, time.Duration) {
	b.tokens = math.Min(burst, b.tokens+now.Sub(b.seen).Seconds()*rate)
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--

		return true, 0
	}

	if rate <= 0 {
		return false, time.Minute
	}

	return false, time.Duration((1 - b.tokens) / rate * float64(time.Second))
}

// NewLimiter creates a Limiter and starts evicting idle buckets until ctx is
// cancelled.
func NewLimiter(ctx context.Context, cfg LimitConfig) *Limiter {
	if cfg.Key == nil {
		cfg.Key = ByClientIP
	}

	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	go l.evict(ctx, 5*time.Minute, 10*time.Minute)

	return l
}

func (l *Limiter) evict(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				if now.Sub(b.seen) > idle {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *Limiter) allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxBuckets {
			return false, time.Second
		}

		b = &bucket{tokens: float64(l.cfg.Burst), seen: now}
		l.buckets[key] = b
	}

	return b.take(now, l.cfg.Rate, float64(l.cfg.Burst))
}

// Handler returns Gin middleware enforcing the limit. Refused requests get
// 429 with a Retry-After header in whole seconds.
func (l *Limiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.allow(l.cfg.Key(c))
		if !ok {
			metrics.RateLimited.WithLabelValues(l.cfg.Name).Inc()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
