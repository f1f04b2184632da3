// Request budgets for the simulation's write endpoints. Decision and
// event submissions are the abuse-prone surfaces, so each scope can carry
// its own per-client window.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter enforces sliding-window request budgets keyed by scope and
// client address. Scopes without an explicit budget share the default.
type RateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*requestWindow
	defLimit int
	scopes   map[string]int
	span     time.Duration
	now      func() time.Time
}

type requestWindow struct {
	count   int
	started time.Time
}

// NewRateLimiter creates a limiter allowing defaultLimit requests per span
// for every scope that has no override.
func NewRateLimiter(defaultLimit int, span time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:  make(map[string]*requestWindow),
		defLimit: defaultLimit,
		scopes:   make(map[string]int),
		span:     span,
		now:      time.Now,
	}
}

// SetScopeLimit overrides the budget for one scope.
func (rl *RateLimiter) SetScopeLimit(scope string, limit int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.scopes[scope] = limit
}

func (rl *RateLimiter) limitFor(scope string) int {
	if l, ok := rl.scopes[scope]; ok {
		return l
	}
	return rl.defLimit
}

// Allow consumes one request from the client's budget in the given scope.
func (rl *RateLimiter) Allow(scope, client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	key := scope + "|" + client
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.started) >= rl.span {
		rl.windows[key] = &requestWindow{count: 1, started: now}
		rl.sweep(now)
		return true
	}
	if w.count >= rl.limitFor(scope) {
		return false
	}
	w.count++
	return true
}

// RetryAfter returns whole seconds until the client's window in the given
// scope resets.
func (rl *RateLimiter) RetryAfter(scope, client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[scope+"|"+client]
	if !ok {
		return 0
	}
	left := rl.span - rl.now().Sub(w.started)
	if left <= 0 {
		return 0
	}
	return int(left.Seconds()) + 1
}

// sweep drops expired windows. Called with the lock held, on window
// creation, so idle clients do not accumulate.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, w := range rl.windows {
		if now.Sub(w.started) >= rl.span {
			delete(rl.windows, key)
		}
	}
}

// clientKey identifies the caller: the first X-Forwarded-For hop when
// present, else the connection address without its port.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware guards one scope with the limiter, answering 429
// with a Retry-After header once the budget is spent.
func RateLimitMiddleware(rl *RateLimiter, scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)
		if !rl.Allow(scope, client) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(scope, client)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
