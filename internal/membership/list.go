// Package membership implements the thread-safe member-id → (Member,
// Health, last-update) mapping at the heart of the SWIM detector:
// insert-or-merge with incarnation/refutation rules, health transitions,
// and random live sampling for probe and gossip target selection.
package membership

import (
	"math/rand"
	"sync"
	"time"

	"github.com/tutu-network/gossipd/internal/domain"
)

type entry struct {
	membership domain.Membership
	updatedAt  time.Time
}

// List is the thread-safe member-id → Membership map. Readers take a
// shared lock; every method is a short critical section — no I/O is ever
// performed while mu is held.
type List struct {
	mu      sync.RWMutex
	self    domain.Member
	entries map[string]*entry
}

// New creates an empty List seeded with the local node's own Member record.
func New(self domain.Member) *List {
	l := &List{self: self, entries: make(map[string]*entry)}
	l.entries[self.ID] = &entry{
		membership: domain.Membership{Member: self, Health: domain.HealthAlive},
		updatedAt:  time.Now(),
	}
	return l
}

// Self returns the local node's last-known-to-itself Member record
// (incarnation included — bumped by refutation).
func (l *List) Self() domain.Member {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[l.self.ID].membership.Member
}

// Insert merges an observed Membership into the list. Returns
// whether local state changed, and — when the observation targets the
// local node and leaves it Suspect or Confirmed — a refutation Membership
// the caller must gossip immediately (an Alive record at incarnation+1).
// A Departed claim about the local node is not refuted.
func (l *List) Insert(observed domain.Membership) (changed bool, refutation *domain.Membership) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := observed.Member.ID
	e, ok := l.entries[id]
	if !ok {
		l.entries[id] = &entry{membership: observed, updatedAt: time.Now()}
		return true, l.maybeRefute(id)
	}

	merged, ch := e.membership.Merge(observed)
	if ch {
		e.membership = merged
		e.updatedAt = time.Now()
	}
	return ch, l.maybeRefute(id)
}

// maybeRefute implements the refutation rule: called with l.mu already
// held for writing.
func (l *List) maybeRefute(id string) *domain.Membership {
	if id != l.self.ID {
		return nil
	}
	e := l.entries[id]
	if e.membership.Health == domain.HealthAlive {
		return nil
	}
	if e.membership.Health == domain.HealthDeparted {
		// An administrative departure of ourselves is not refuted.
		return nil
	}
	self := e.membership.Member
	self.Incarnation++
	refuted := domain.Membership{Member: self, Health: domain.HealthAlive}
	e.membership = refuted
	e.updatedAt = time.Now()
	return &refuted
}

// HealthOf returns the current health of a member, if known.
func (l *List) HealthOf(id string) (domain.Health, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[id]
	if !ok {
		return 0, false
	}
	return e.membership.Health, true
}

// SetHealth sets a member's health directly (used by the SWIM detector to
// move a member through Suspect/Confirmed without a full incoming
// Membership record). Departed is sticky per the Merge rule.
func (l *List) SetHealth(id string, h domain.Health) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return false
	}
	candidate := domain.Membership{Member: e.membership.Member, Health: h}
	merged, changed := e.membership.Merge(candidate)
	if changed {
		e.membership = merged
		e.updatedAt = time.Now()
	}
	return changed
}

// UpdatedAt returns when a member's entry last changed.
func (l *List) UpdatedAt(id string) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return e.updatedAt, true
}

// WithMember grants short-lived read access to a member under the shared
// lock. f must not block or perform I/O.
func (l *List) WithMember(id string, f func(domain.Membership)) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[id]
	if !ok {
		return false
	}
	f(e.membership)
	return true
}

// Members returns a snapshot of every known Membership.
func (l *List) Members() []domain.Membership {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Membership, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.membership)
	}
	return out
}

// AliveCount returns the number of members currently Alive or Suspect
// (i.e. "live" for quorum/fanout purposes).
func (l *List) AliveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries {
		if e.membership.Health == domain.HealthAlive || e.membership.Health == domain.HealthSuspect {
			n++
		}
	}
	return n
}

// RandomLive returns up to k members with Health in {Alive, Suspect},
// excluding any id present in exclude, sampled without replacement.
func (l *List) RandomLive(k int, exclude map[string]bool) []domain.Member {
	l.mu.RLock()
	candidates := make([]domain.Member, 0, len(l.entries))
	for id, e := range l.entries {
		if exclude != nil && exclude[id] {
			continue
		}
		if e.membership.Health != domain.HealthAlive && e.membership.Health != domain.HealthSuspect {
			continue
		}
		candidates = append(candidates, e.membership.Member)
	}
	l.mu.RUnlock()

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k]
}

// SuspectedSince returns the time a member was last observed to change
// into Suspect health, used by the expiry loop to compute confirm timeouts.
func (l *List) SuspectedSince(id string) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[id]
	if !ok || e.membership.Health != domain.HealthSuspect {
		return time.Time{}, false
	}
	return e.updatedAt, true
}

// EachSuspect calls f for every member currently Suspect, under the shared
// lock. f must not block.
func (l *List) EachSuspect(f func(id string, since time.Time)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for id, e := range l.entries {
		if e.membership.Health == domain.HealthSuspect {
			f(id, e.updatedAt)
		}
	}
}

// EachConfirmedNonPersistent calls f for every member currently Confirmed
// and non-persistent, under the shared lock. f must not block. Used by the
// expiry loop to find members eligible for garbage collection; persistent
// members are never removed. A Confirmed member, persistent or not, is not
// probed again: RandomLive only samples Alive and Suspect members.
func (l *List) EachConfirmedNonPersistent(f func(id string, since time.Time)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for id, e := range l.entries {
		if e.membership.Health == domain.HealthConfirmed && !e.membership.Member.Persistent {
			f(id, e.updatedAt)
		}
	}
}

// Remove deletes a non-persistent, Confirmed member's entry once its grace
// period has elapsed. The local node is never removed, and a member whose
// health or persistence changed since the caller last checked is left
// alone — the caller's snapshot may be stale, and Remove re-validates
// under the write lock before deleting.
func (l *List) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == l.self.ID {
		return false
	}
	e, ok := l.entries[id]
	if !ok {
		return false
	}
	if e.membership.Member.Persistent || e.membership.Health != domain.HealthConfirmed {
		return false
	}
	delete(l.entries, id)
	return true
}
