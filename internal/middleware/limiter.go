package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"rangestream/internal/observability"
)

const (
	sweepInterval = 1 * time.Minute
	visitorTTL    = 3 * time.Minute
)

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address. A player scrubbing
// through a file issues a burst of range requests, so burst should be generous.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[netip.Addr]*visitor

	limit        rate.Limit
	burst        int
	trustedProxy bool
	logger       *slog.Logger
}

func NewRateLimiter(logger *slog.Logger, rps, burst int, trustedProxy bool) *RateLimiter {
	return &RateLimiter{
		visitors:     make(map[netip.Addr]*visitor),
		limit:        rate.Limit(rps),
		burst:        burst,
		trustedProxy: trustedProxy,
		logger:       logger,
	}
}

// Run forgets idle clients every sweepInterval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := l.sweep(now); n > 0 {
				l.logger.Debug("rate limiter swept idle clients", "removed", n)
			}
		}
	}
}

func (l *RateLimiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for addr, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, addr)
			removed++
		}
	}
	return removed
}

// allow takes a token for addr; when none is left it reports how long until one is.
func (l *RateLimiter) allow(addr netip.Addr, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	v, ok := l.visitors[addr]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[addr] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	if v.bucket.AllowN(now, 1) {
		return true, 0
	}

	// peek without consuming
	r := v.bucket.ReserveN(now, 1)
	defer r.CancelAt(now)
	return false, r.DelayFrom(now)
}

// ClientIP resolves the caller address. X-Forwarded-For and X-Real-IP are
// only believed behind a trusted proxy.
func ClientIP(r *http.Request, trustedProxy bool) (netip.Addr, error) {
	raw := r.RemoteAddr
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}

	if trustedProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			raw, _, _ = strings.Cut(xff, ",")
		} else if xri := r.Header.Get("X-Real-IP"); xri != "" {
			raw = xri
		}
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("client address %q: %w", raw, err)
	}
	return addr.Unmap(), nil
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, err := ClientIP(r, l.trustedProxy)
		if err != nil {
			l.logger.Debug("rejecting request", "id", RequestID(r.Context()), "err", err)
			http.Error(w, "invalid client address", http.StatusBadRequest)
			return
		}

		ok, wait := l.allow(addr, time.Now())
		if !ok {
			retry := max(1, int(wait.Round(time.Second).Seconds()))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(retry))

			observability.RateLimited.Inc()
			l.logger.Debug("rate limited", "id", RequestID(r.Context()), "client", addr, "path", r.URL.Path, "retry_after", retry)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
