package app

import (
	"sync"
	"time"

	"github.com/dkeye/RemoteDesk/internal/domain"
	"golang.org/x/time/rate"
)

// AttemptLimiter is a sliding window over join attempts per connection.
type AttemptLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

// NewAttemptLimiter allows limit attempts per interval. limit <= 0 disables it.
func NewAttemptLimiter(limit int, interval time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		history:  make(map[domain.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *AttemptLimiter) Allow(id domain.ConnID) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[id]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[id] = fresh
		return false
	}
	rl.history[id] = append(fresh, now)
	return true
}

func (rl *AttemptLimiter) Forget(id domain.ConnID) {
	rl.mu.Lock()
	delete(rl.history, id)
	rl.mu.Unlock()
}

// InputLimiter keeps one token bucket per connection for pointer and key events.
type InputLimiter struct {
	mu      sync.Mutex
	buckets map[domain.ConnID]*rate.Limiter
	r       rate.Limit
	burst   int
}

// NewInputLimiter builds a limiter of perSecond events with burst. perSecond <= 0
// disables limiting.
func NewInputLimiter(perSecond float64, burst int) *InputLimiter {
	if burst < 1 {
		burst = 1
	}
	return &InputLimiter{
		buckets: make(map[domain.ConnID]*rate.Limiter),
		r:       rate.Limit(perSecond),
		burst:   burst,
	}
}

func (l *InputLimiter) Allow(id domain.ConnID) bool {
	if l.r <= 0 {
		return true
	}
	l.mu.Lock()
	b, ok := l.buckets[id]
	if !ok {
		b = rate.NewLimiter(l.r, l.burst)
		l.buckets[id] = b
	}
	l.mu.Unlock()
	return b.Allow()
}

func (l *InputLimiter) Forget(id domain.ConnID) {
	l.mu.Lock()
	delete(l.buckets, id)
	l.mu.Unlock()
}
