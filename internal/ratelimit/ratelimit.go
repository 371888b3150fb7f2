// Package ratelimit provides a per-key sliding-window limiter. Entries live
// in an LRU cache so abandoned keys age out instead of growing a process-
// wide map forever.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type Limiter struct {
	mu     sync.Mutex
	cache  *lru.Cache
	limit  int
	window time.Duration
	now    func() time.Time
}

func New(limit int, window time.Duration, maxKeys int) (*Limiter, error) {
	cache, err := lru.New(maxKeys)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Limiter{cache: cache, limit: limit, window: window, now: time.Now}, nil
}

// Allow records one request for key and reports whether it stays within
// the window limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	var times []time.Time
	if v, ok := l.cache.Get(key); ok {
		for _, t := range v.([]time.Time) {
			if t.After(cutoff) {
				times = append(times, t)
			}
		}
	}

	if len(times) >= l.limit {
		l.cache.Add(key, times)
		return false
	}

	times = append(times, now)
	l.cache.Add(key, times)
	return true
}
