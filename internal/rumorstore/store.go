// Package rumorstore implements the thread-safe (type, key, id) → rumor
// mapping and its per-entry dissemination counters.
package rumorstore

import (
	"math"
	"sync"

	"github.com/tutu-network/gossipd/internal/domain"
)

type slot struct {
	rumor   domain.Rumor
	counter int
	seen    map[string]bool // targets already sent this rumor since last refresh
}

// LiveCountFunc returns the current live member count, used to size a
// freshly-inserted or merge-refreshed rumor's dissemination counter.
type LiveCountFunc func() int

// Store is the thread-safe rumor store. All locking is short-held; no I/O
// is ever performed while mu is held.
type Store struct {
	mu       sync.RWMutex
	slots    map[domain.StoreKey]*slot
	liveFunc LiveCountFunc
}

// New creates an empty Store. liveFunc supplies N for the
// 3*ln(N+1) dissemination-counter formula.
func New(liveFunc LiveCountFunc) *Store {
	return &Store{slots: make(map[domain.StoreKey]*slot), liveFunc: liveFunc}
}

// initialCounter computes ceil(3 * ln(N+1)), with a floor of 1 so a rumor
// is disseminated at least once even in a freshly-booted single-node ring.
func initialCounter(n int) int {
	c := int(math.Ceil(3 * math.Log(float64(n)+1)))
	if c < 1 {
		c = 1
	}
	return c
}

// Insert merges a rumor into the store, keyed by (Kind, Key, ID). If the
// key is new, the rumor is stored and its counter initialized; if it
// already exists, the variant's Merge rule decides whether to replace it
// and, if so, the counter is refreshed and the seen-set cleared so the new
// state reaches everyone again.
func (s *Store) Insert(r domain.Rumor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.KeyOf(r)
	sl, ok := s.slots[key]
	if !ok {
		s.slots[key] = &slot{
			rumor:   r,
			counter: initialCounter(s.liveFunc()),
			seen:    make(map[string]bool),
		}
		return true
	}

	merged, changed := sl.rumor.Merge(r)
	if !changed {
		return false
	}
	sl.rumor = merged
	sl.counter = initialCounter(s.liveFunc())
	sl.seen = make(map[string]bool)
	return true
}

// Get returns the current rumor for a key, if present.
func (s *Store) Get(key domain.StoreKey) (domain.Rumor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[key]
	if !ok {
		return nil, false
	}
	return sl.rumor, true
}

// ForGossip returns every rumor whose counter is still positive and that
// has not yet been sent to targetID since its last refresh, decrementing
// each returned rumor's counter by one. Rumors whose counter reaches zero
// stay in the store (still authoritative) but stop being returned here.
func (s *Store) ForGossip(targetID string) []domain.Rumor {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Rumor
	for _, sl := range s.slots {
		if sl.counter <= 0 {
			continue
		}
		if sl.seen[targetID] {
			continue
		}
		sl.seen[targetID] = true
		sl.counter--
		out = append(out, sl.rumor)
	}
	return out
}

// All returns every rumor currently held, cold or not — used by the debug
// introspection surface and by tests.
func (s *Store) All() []domain.Rumor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Rumor, 0, len(s.slots))
	for _, sl := range s.slots {
		out = append(out, sl.rumor)
	}
	return out
}

// Len reports how many distinct (type, key, id) rumors are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}
