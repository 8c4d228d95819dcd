package ratelimit

import (
	"sync"
	"time"
)

// Store tracks request counts per key inside a fixed window.
type Store interface {
	// Hit records one request for key and reports the running count and
	// the window reset time. A fresh window opens when the previous one
	// has lapsed.
	Hit(key string, period time.Duration) (count int, resetAt time.Time)
	Reset(key string)
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*windowEntry
}

func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		windows: make(map[string]*windowEntry),
	}

	go store.evictLoop()

	return store
}

func (s *MemoryStore) Hit(key string, period time.Duration) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if w, ok := s.windows[key]; ok && now.Before(w.resetAt) {
		w.count++
		return w.count, w.resetAt
	}

	w := &windowEntry{count: 1, resetAt: now.Add(period)}
	s.windows[key] = w
	return w.count, w.resetAt
}

func (s *MemoryStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.windows, key)
}

func (s *MemoryStore) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for key, w := range s.windows {
			if now.After(w.resetAt) {
				delete(s.windows, key)
			}
		}
		s.mu.Unlock()
	}
}
