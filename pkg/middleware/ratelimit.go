package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess int64
}

// RateLimiter is a per-client token bucket kept in process memory.
type RateLimiter struct {
	limiters  sync.Map
	perSecond rate.Limit
	burst     int
	KeyFunc   func(*http.Request) string
}

// NewRateLimiter allows perMinute requests per client with the given burst.
func NewRateLimiter(perMinute float64, burst int) *RateLimiter {
	l := &RateLimiter{
		perSecond: rate.Limit(perMinute / 60),
		burst:     burst,
		KeyFunc:   KeyByIP,
	}
	go l.cleanup()
	return l
}

func (l *RateLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-entryTTL).Unix()
		l.limiters.Range(func(key, value any) bool {
			if entry, ok := value.(*limiterEntry); ok && atomic.LoadInt64(&entry.lastAccess) < cutoff {
				l.limiters.Delete(key)
			}
			return true
		})
	}
}

func (l *RateLimiter) allow(key string) bool {
	now := time.Now().Unix()
	entryI, loaded := l.limiters.Load(key)
	if !loaded {
		entryI, _ = l.limiters.LoadOrStore(key, &limiterEntry{
			limiter:    rate.NewLimiter(l.perSecond, l.burst),
			lastAccess: now,
		})
	}
	entry := entryI.(*limiterEntry)
	atomic.StoreInt64(&entry.lastAccess, now)
	return entry.limiter.Allow()
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.KeyFunc(r)
		if !l.allow(key) {
			retryAfter := 1
			if l.perSecond > 0 {
				if secs := int(1 / float64(l.perSecond)); secs > retryAfter {
					retryAfter = secs
				}
			}
			logger.Log.WithField("key", key).Warn("Rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// KeyByIP keys requests by the connection's remote address. Forwarding
// headers are ignored since any client can set them.
func KeyByIP(r *http.Request) string {
	return "ip:" + remoteIP(r)
}

// KeyByClientIP trusts X-Forwarded-For and X-Real-IP only when the request
// arrives from one of the trusted proxies. The client is the right-most
// forwarded hop that is not itself a trusted proxy.
func KeyByClientIP(trusted []*net.IPNet) func(*http.Request) string {
	if len(trusted) == 0 {
		return KeyByIP
	}
	isTrusted := func(s string) bool {
		ip := net.ParseIP(s)
		if ip == nil {
			return false
		}
		for _, n := range trusted {
			if n.Contains(ip) {
				return true
			}
		}
		return false
	}

	return func(r *http.Request) string {
		remote := remoteIP(r)
		if !isTrusted(remote) {
			return "ip:" + remote
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				hop := strings.TrimSpace(hops[i])
				if hop != "" && !isTrusted(hop) {
					return "ip:" + hop
				}
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return "ip:" + xri
		}
		return "ip:" + remote
	}
}

// ParseProxies accepts plain addresses or CIDR ranges.
func ParseProxies(entries []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("invalid proxy address %q", e)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy range %q: %w", e, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
