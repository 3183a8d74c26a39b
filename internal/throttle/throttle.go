// Package throttle enforces per-role request rates, mirroring the scoped
// rate classes of the API (anonymous, client, staff roles).
package throttle

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/config"
	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/httpx"
)

type Limiter struct {
	cfg config.ThrottleConfig

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func New(cfg config.ThrottleConfig) *Limiter {
	return &Limiter{cfg: cfg, buckets: make(map[string]*rate.Limiter)}
}

// Allow checks the bucket for the given caller (nil = anonymous, keyed by
// remote address).
func (l *Limiter) Allow(c *domain.Caller, remoteAddr string) bool {
	key, rps := l.scope(c, remoteAddr)

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Limit(rps), l.cfg.Burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.Allow()
}

func (l *Limiter) scope(c *domain.Caller, remoteAddr string) (string, float64) {
	if c == nil {
		host, _, err := net.SplitHostPort(remoteAddr)
		if err != nil {
			host = remoteAddr
		}
		return "anon:" + host, l.cfg.AnonRPS
	}
	key := fmt.Sprintf("%s:%d", c.Role, c.ID)
	if c.Role == domain.RoleClient {
		return key, l.cfg.ClientRPS
	}
	return key, l.cfg.StaffRPS
}

// Wrap rejects requests over the caller's rate with 429.
func (l *Limiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(auth.CallerFrom(r.Context()), r.RemoteAddr) {
			httpx.WriteProblem(w, http.StatusTooManyRequests, "throttled", "request rate exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
