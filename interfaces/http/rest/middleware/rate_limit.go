package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimitConfig holds configuration for the per-client rate limiter
type RateLimitConfig struct {
	MaxTokens  int
	RefillRate time.Duration
}

// DefaultRateLimitConfig allows a burst of 30 requests refilling one every
// 100ms, roomy for a polling sync client, tight enough to stop a runaway loop
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxTokens:  30,
		RefillRate: 100 * time.Millisecond,
	}
}

// rateLimiter is a token bucket limiter keyed by client IP
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  RateLimitConfig
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

func newRateLimiter(config RateLimitConfig) *rateLimiter {
	return &rateLimiter{
		buckets: make(map[string]*bucket),
		config:  config,
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.config.MaxTokens, lastRefill: now}
		l.buckets[key] = b
	}

	if refill := int(now.Sub(b.lastRefill) / l.config.RefillRate); refill > 0 {
		b.tokens = min(b.tokens+refill, l.config.MaxTokens)
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// sweep drops buckets idle long enough to be full again
func (l *rateLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-time.Hour)
	for key, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// RateLimit answers 429 once a client exhausts its token bucket
func RateLimit(config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limiter := newRateLimiter(config)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.sweep()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}

			if !limiter.allow(key) {
				logger.Warn("request rate limited", zap.String("client", key), zap.String("path", r.URL.Path))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
