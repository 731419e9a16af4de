package server

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// globalFactor sizes the shared bucket relative to the per-client one,
// so one client cannot consume the whole service budget.
const globalFactor = 10

// RateLimiter enforces per-client and global token buckets. Clients are
// keyed by remote IP.
type RateLimiter struct {
	mu      sync.Mutex
	global  *rate.Limiter
	clients map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// NewRateLimiter allows rps requests per second per client, with a
// burst of the same size, under a shared cap of globalFactor*rps.
func NewRateLimiter(rps int) *RateLimiter {
	if rps < 1 {
		rps = 1
	}
	return &RateLimiter{
		global:  rate.NewLimiter(rate.Limit(rps*globalFactor), rps*globalFactor),
		clients: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   rps,
	}
}

// Allow reports whether a request from the given client may proceed.
func (rl *RateLimiter) Allow(client string) bool {
	if !rl.global.Allow() {
		return false
	}
	rl.mu.Lock()
	limiter, ok := rl.clients[client]
	if !ok {
		limiter = rate.NewLimiter(rl.rps, rl.burst)
		rl.clients[client] = limiter
	}
	rl.mu.Unlock()
	return limiter.Allow()
}

// clientKey strips the ephemeral port so all connections from one
// address share a bucket.
func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientKey(r.RemoteAddr)) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
