package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

const defaultSweepEvery = 1024

// RateLimitMemoryStore keeps sliding windows in process memory. Every
// sweepEvery records, keys with nothing left in their window are dropped so
// one-off clients do not pile up.
type RateLimitMemoryStore struct {
	mu         sync.Mutex
	windows    map[string]*slidingWindow
	now        func() time.Time
	sweepEvery int
	records    int
}

type slidingWindow struct {
	width  time.Duration
	stamps []time.Time
}

// prune drops the stamps that are no longer inside the window ending at now.
func (w *slidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.width)
	expired := sort.Search(len(w.stamps), func(i int) bool { return w.stamps[i].After(cutoff) })
	w.stamps = slices.Delete(w.stamps, 0, expired)
}

func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows:    make(map[string]*slidingWindow),
		now:        time.Now,
		sweepEvery: defaultSweepEvery,
	}
}

// WithClock overrides the time source used to stamp requests.
func (s *RateLimitMemoryStore) WithClock(now func() time.Time) *RateLimitMemoryStore {
	s.now = now

	return s
}

// WithSweepEvery sets how many records pass between idle-key sweeps.
func (s *RateLimitMemoryStore) WithSweepEvery(n int) *RateLimitMemoryStore {
	s.sweepEvery = max(n, 1)

	return s
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	s.records++
	if s.records%s.sweepEvery == 0 {
		s.sweep(now)
	}

	w, ok := s.windows[key]
	if !ok {
		w = &slidingWindow{width: window}
		s.windows[key] = w
	}

	w.width = window
	w.prune(now)
	w.stamps = append(w.stamps, now)

	return int64(len(w.stamps)), nil
}

// Keys reports how many client windows are tracked.
func (s *RateLimitMemoryStore) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

func (s *RateLimitMemoryStore) sweep(now time.Time) {
	for key, w := range s.windows {
		if w.prune(now); len(w.stamps) == 0 {
			delete(s.windows, key)
		}
	}
}
