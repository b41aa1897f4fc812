// Package ratelimit implements an in-memory token bucket per client key.
package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter gives every key a bucket of Burst tokens that refills at Rate
// tokens per second.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    float64
	burst   float64
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// New creates a limiter and starts a janitor that drops idle buckets every
// cleanupEvery. Call Stop to end it.
func New(rate float64, burst int, cleanupEvery time.Duration) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		rate:    rate,
		burst:   float64(burst),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go l.cleanup(cleanupEvery)
	}
	return l
}

// Allow consumes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		l.entries[key] = &entry{tokens: l.burst - 1, lastCheck: now}
		return true
	}

	e.tokens = min(l.burst, e.tokens+now.Sub(e.lastCheck).Seconds()*l.rate)
	e.lastCheck = now
	if e.tokens < 1 {
		return false
	}
	e.tokens--
	return true
}

// RetryAfter estimates how long key must wait for its next token.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok || e.tokens >= 1 || l.rate <= 0 {
		return 0
	}
	return time.Duration((1 - e.tokens) / l.rate * float64(time.Second))
}

// Reset clears the state for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Stop ends the janitor goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

// evictIdle drops buckets that have refilled completely; they hold no state
// a fresh bucket would not.
func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, e := range l.entries {
		if e.tokens+now.Sub(e.lastCheck).Seconds()*l.rate >= l.burst {
			delete(l.entries, key)
		}
	}
}
