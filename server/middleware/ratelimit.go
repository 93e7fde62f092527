package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/kbukum/livepage/errors"
)

// WriteRateLimit caps page writes (any method other than GET, HEAD and
// OPTIONS) per client IP over a sliding one-minute window. Reads and event
// streams are never limited. perMinute <= 0 disables the limit.
func WriteRateLimit(perMinute int) Middleware {
	return func(next http.Handler) http.Handler {
		if perMinute <= 0 {
			return next
		}
		rl := newRateLimiter(perMinute, time.Now)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				if !rl.allow(clientIP(r)) {
					writeError(w, apperrors.RateLimited(perMinute))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	mu        sync.Mutex
	limit     int
	now       func() time.Time
	requests  map[string][]time.Time
	lastSweep time.Time
}

func newRateLimiter(limit int, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		limit:     limit,
		now:       now,
		requests:  make(map[string][]time.Time),
		lastSweep: now(),
	}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-time.Minute)
	if now.Sub(rl.lastSweep) > time.Minute {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	valid := filterAfter(rl.requests[key], cutoff)
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// sweep drops keys with no requests inside the window.
func (rl *rateLimiter) sweep(cutoff time.Time) {
	for key, times := range rl.requests {
		if valid := filterAfter(times, cutoff); len(valid) > 0 {
			rl.requests[key] = valid
		} else {
			delete(rl.requests, key)
		}
	}
}

func filterAfter(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}
