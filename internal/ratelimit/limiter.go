// Package ratelimit bounds how many upstream calls each source may make
// inside a fixed time window.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter tracks a request count per source key inside fixed, non-sliding
// windows. A burst straddling a window boundary can momentarily pass close to
// twice the limit; that approximation is accepted in exchange for constant
// memory per source.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration

	now func() time.Time
}

// New creates a limiter allowing limit calls per source per period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// TryAcquire consumes one unit of the source's budget. It returns false,
// without incrementing, when the current window is exhausted; the caller is
// expected to take its fallback path.
func (l *Limiter) TryAcquire(sourceKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[sourceKey]
	if !ok {
		w = &window{}
		l.windows[sourceKey] = w
	}
	if now.After(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(l.period)
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how much budget the source has left in its current
// window, without consuming any.
func (l *Limiter) Remaining(sourceKey string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[sourceKey]
	if !ok || l.now().After(w.resetAt) {
		return l.limit
	}
	if w.count >= l.limit {
		return 0
	}
	return l.limit - w.count
}
