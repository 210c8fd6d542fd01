// Package ratelimit provides a per-client token bucket rate limiter with an
// explicit lifecycle: construct once at startup, Stop on shutdown. There is
// no package-level state.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// client tracks a token bucket per client key.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter enforces a request quota per client key. Stale entries are evicted
// by a background sweep so the map stays bounded.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     rate.Limit
	burst   int
	ttl     time.Duration
	nowFunc func() time.Time // injectable clock for testing
	done    chan struct{}
	once    sync.Once
}

// New creates a limiter allowing rps requests per second with the given burst
// per client key. Entries not seen within ttl are evicted.
func New(rps float64, burst int, ttl time.Duration) *Limiter {
	l := &Limiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
		nowFunc: time.Now,
		done:    make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// PerMinute creates a limiter allowing n requests per minute per client key,
// the quota shape the webhook endpoints use.
func PerMinute(n int) *Limiter {
	return New(float64(n)/60.0, n, 3*time.Minute)
}

// Allow reports whether the client identified by key is within its quota.
// Over-quota calls return false until the window rolls over.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = l.nowFunc()
	l.mu.Unlock()

	return c.limiter.Allow()
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Stop terminates the background sweep. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep evicts all clients whose lastSeen is older than the TTL.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.ttl {
			delete(l.clients, key)
		}
	}
}
