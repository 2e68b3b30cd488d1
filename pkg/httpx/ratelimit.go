package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/todoauth/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Rate limit profiles. The config layer may override them with
// ParseRateLimitFromEnv.
var (
	// StrictLimit for password attempts (brute force prevention).
	// Allows 5 requests per minute, with all 5 available as a burst.
	StrictLimit = RateLimitConfig{
		RequestsPerWindow: 5,
		Window:            time.Minute,
		Burst:             5,
	}

	// LenientLimit for ordinary API traffic. A client with a 5 second access
	// token refreshes often, so this is generous.
	LenientLimit = RateLimitConfig{
		RequestsPerWindow: 300,
		Window:            time.Minute,
		Burst:             60,
	}
)

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: RATELIMIT_{prefix}_{field}
// For example: RATELIMIT_STRICT_REQUESTS, RATELIMIT_STRICT_WINDOW_SEC, RATELIMIT_STRICT_BURST
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// KeyExtractor is a function that extracts a unique key from the request
// for rate limiting purposes.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RateLimitOption tweaks a Limiter.
type RateLimitOption func(*Limiter)

// WithLimitHook registers fn to be called every time a request is rejected.
func WithLimitHook(fn func(r *http.Request)) RateLimitOption {
	return func(l *Limiter) { l.onLimit = fn }
}

// WithIdleTTL sets how long an unused per-key bucket is kept.
func WithIdleTTL(d time.Duration) RateLimitOption {
	return func(l *Limiter) {
		if d > 0 {
			l.idleTTL = d
		}
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a set of token buckets keyed by an arbitrary string. Use it
// directly when the key is only known after the request body is read;
// otherwise use RateLimitMiddleware.
type Limiter struct {
	config RateLimitConfig

	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	rate        rate.Limit
	idleTTL     time.Duration
	lastCleanup time.Time
	onLimit     func(*http.Request)
}

func NewLimiter(config RateLimitConfig, opts ...RateLimitOption) *Limiter {
	l := &Limiter{
		config:      config,
		limiters:    make(map[string]*limiterEntry),
		rate:        rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		idleTTL:     5 * time.Minute,
		lastCleanup: time.Now(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether key may proceed and, if not, how long until it may.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Drop idle buckets so ephemeral keys don't accumulate
	if now.Sub(l.lastCleanup) >= l.idleTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) >= l.idleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.config.Burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now

	if e.limiter.AllowN(now, 1) {
		return true, 0
	}

	res := e.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return false, delay
}

// Reject writes the 429 response for a request Allow turned down.
func (l *Limiter) Reject(w http.ResponseWriter, r *http.Request, key string, delay time.Duration) {
	retryAfter := max(int(delay.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.config.RequestsPerWindow))
	w.Header().Set("X-RateLimit-Window", l.config.Window.String())

	slogx.FromContext(r.Context()).Warn("rate limit exceeded",
		"key", key,
		"endpoint", r.URL.Path,
		"retry_after", retryAfter,
	)
	if l.onLimit != nil {
		l.onLimit(r)
	}

	WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
}

// RateLimitMiddleware creates a rate limiting middleware with the given configuration.
// The keyExtractor determines how requests are grouped for rate limiting.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor, opts ...RateLimitOption) Middleware {
	l := NewLimiter(config, opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyExtractor(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if ok, delay := l.Allow(key); !ok {
				l.Reject(w, r, key, delay)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP creates a rate limiter that limits by IP address only.
func RateLimitByIP(config RateLimitConfig, opts ...RateLimitOption) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor, opts...)
}
