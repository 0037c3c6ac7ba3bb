package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// keyedLimiter holds one token bucket per caller key.
type keyedLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	clients map[string]*clientLimiter
	now     func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(rps float64, burst int) *keyedLimiter {
	return &keyedLimiter{
		rps:     rate.Limit(rps),
		burst:   max(1, burst),
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// reserve takes a token for key. It returns zero when the request may
// proceed, otherwise how long the caller should wait.
func (k *keyedLimiter) reserve(key string) (wait time.Duration, remaining int) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	cl, ok := k.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(k.rps, k.burst)}
		k.clients[key] = cl
	}
	cl.lastSeen = now

	r := cl.limiter.ReserveN(now, 1)
	if !r.OK() {
		return time.Second, 0
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d, 0
	}
	return 0, int(cl.limiter.TokensAt(now))
}

// sweep forgets callers idle for longer than idle.
func (k *keyedLimiter) sweep(idle time.Duration) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	cutoff := k.now().Add(-idle)
	removed := 0
	for key, cl := range k.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(k.clients, key)
			removed++
		}
	}
	return removed
}

func (k *keyedLimiter) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.clients)
}

// run sweeps periodically until ctx is done, reporting the surviving caller
// count after each sweep.
func (k *keyedLimiter) run(ctx context.Context, every, idle time.Duration, report func(int)) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			k.sweep(idle)
			report(k.size())
		}
	}
}
