package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxTrackedClients = 10000

// RateLimiter is an in-process fixed-window limiter keyed by client address.
// It backs the API when no Redis is configured, so each replica counts on its own.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*clientWindow
}

type clientWindow struct {
	count int
	reset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: map[string]*clientWindow{},
	}
}

// Allow counts one request for key. When the budget is spent it reports how
// long until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.windows) >= maxTrackedClients {
		for k, cw := range rl.windows {
			if !now.Before(cw.reset) {
				delete(rl.windows, k)
			}
		}
	}

	cw, ok := rl.windows[key]
	if !ok || !now.Before(cw.reset) {
		rl.windows[key] = &clientWindow{count: 1, reset: now.Add(rl.window)}
		return true, 0
	}
	if cw.count >= rl.limit {
		return false, cw.reset.Sub(now)
	}
	cw.count++
	return true, 0
}

func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, wait := rl.Allow(clientKey(r)); !ok {
				w.Header().Set("Retry-After", retryAfterSeconds(wait))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up so clients never retry inside the window.
func retryAfterSeconds(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
