// Package domain holds the pure business types of the membership and rumor
// engine — members, health, rumors, and the election merge rules. Nothing in
// this package touches a socket, a lock, or a clock tick; that lives in
// internal/membership, internal/rumorstore, and internal/infra/gossip.
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewMemberID mints a 32-hex-character identity, generated once at first
// boot and persisted by the host process.
func NewMemberID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Health is the totally ordered SWIM health state. Departed is terminal.
type Health int

const (
	HealthAlive Health = iota
	HealthSuspect
	HealthConfirmed
	HealthDeparted
)

func (h Health) String() string {
	switch h {
	case HealthAlive:
		return "alive"
	case HealthSuspect:
		return "suspect"
	case HealthConfirmed:
		return "confirmed"
	case HealthDeparted:
		return "departed"
	default:
		return fmt.Sprintf("health(%d)", int(h))
	}
}

// Member is a stable cluster participant. Identity is immutable; Incarnation
// never decreases; (Address, SwimPort) must reach that member's SWIM
// listener.
type Member struct {
	ID          string
	Incarnation uint64
	Address     string
	SwimPort    int32
	GossipPort  int32
	Persistent  bool
	Departed    bool
}

// SwimAddr returns the "host:port" string of this member's SWIM listener.
func (m Member) SwimAddr() string {
	return fmt.Sprintf("%s:%d", m.Address, m.SwimPort)
}

// GossipAddr returns the "host:port" string of this member's gossip stream
// listener.
func (m Member) GossipAddr() string {
	return fmt.Sprintf("%s:%d", m.Address, m.GossipPort)
}

// Membership pairs a Member with the observer's current Health assessment
// of it.
type Membership struct {
	Member Member
	Health Health
}

// Merge resolves two Membership observations for the same member-id:
// the record with the greater incarnation wins; equal incarnations
// defer to the greater Health value; Departed is absorbing regardless of
// incarnation.
func (m Membership) Merge(other Membership) (Membership, bool) {
	if m.Health == HealthDeparted {
		return m, false
	}
	switch {
	case other.Member.Incarnation > m.Member.Incarnation:
		return other, true
	case other.Member.Incarnation < m.Member.Incarnation:
		return m, false
	default:
		if other.Health > m.Health {
			return other, true
		}
		return m, false
	}
}
