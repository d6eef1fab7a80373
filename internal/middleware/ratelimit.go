package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"vapi-proxy/internal/metrics"
)

type visitor struct {
	count       int
	windowStart time.Time
}

// RateLimitPolicy is a fixed-window limit applied per client identifier.
type RateLimitPolicy struct {
	Name    string
	Limit   int
	Window  time.Duration
	Message string
}

// RateLimitDecision is the outcome of one Allow call.
type RateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter int // seconds until the window resets
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	policy   RateLimitPolicy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewRateLimiter(policy RateLimitPolicy, logger *slog.Logger, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		policy:   policy,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Name() string { return rl.policy.Name }

// Allow counts a request from key at now. A window that has fully elapsed
// restarts at now with a count of one.
func (rl *RateLimiter) Allow(key string, now time.Time) RateLimitDecision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists || now.Sub(v.windowStart) >= rl.policy.Window {
		v = &visitor{count: 1, windowStart: now}
		rl.visitors[key] = v
	} else {
		v.count++
	}

	retryAfter := int(math.Ceil(v.windowStart.Add(rl.policy.Window).Sub(now).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	remaining := rl.policy.Limit - v.count
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitDecision{
		Allowed:    v.count <= rl.policy.Limit,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}
}

// Sweep evicts clients whose window expired before now.
func (rl *RateLimiter) Sweep(now time.Time) int {
	rl.mu.Lock()
	evicted := 0
	for key, v := range rl.visitors {
		if now.Sub(v.windowStart) >= rl.policy.Window {
			delete(rl.visitors, key)
			evicted++
		}
	}
	size := len(rl.visitors)
	rl.mu.Unlock()

	rl.metrics.SetRateLimitClients(rl.policy.Name, size)
	return evicted
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := ClientID(r)
		d := rl.Allow(clientID, rl.now())

		w.Header().Set("RateLimit-Limit", strconv.Itoa(rl.policy.Limit))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
		w.Header().Set("RateLimit-Reset", strconv.Itoa(d.RetryAfter))

		if !d.Allowed {
			rl.logger.Warn("rate limit exceeded",
				"policy", rl.policy.Name,
				"client_id", clientID,
				"path", r.URL.Path,
			)
			rl.metrics.RateLimited(rl.policy.Name)

			w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
			writeRateLimited(w, r, rl.policy.Message, d.RetryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}
