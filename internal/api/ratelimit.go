package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter hands out one token bucket per client. A bucket holds limit
// tokens and refills one token per window, so no half-open window of that
// length admits more than limit requests.
type rateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientLimiter),
	}
}

func (l *rateLimiter) allow(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.window {
		l.sweepLocked(now)
	}

	c, ok := l.clients[client]
	if !ok {
		c = &clientLimiter{
			lim: rate.NewLimiter(rate.Every(l.window), l.limit),
		}
		l.clients[client] = c
	}
	c.lastSeen = now
	return c.lim.AllowN(now, 1)
}

// sweepLocked drops clients idle for a full window. None of their requests
// fall inside the current window any more, so they start over with a full
// bucket.
func (l *rateLimiter) sweepLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.window {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

func (l *rateLimiter) exceededDetail() string {
	per := l.window.String()
	if l.window == time.Minute {
		per = "minute"
	}
	return fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %s.", l.limit, per)
}

func (l *rateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// clientIP prefers the first X-Forwarded-For hop since the service usually
// runs behind a hosting proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
