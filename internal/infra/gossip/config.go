// Package gossip implements the SWIM failure detector (inbound/outbound
// probe loops, suspect expiry) and the push/pull rumor transport, wired
// together by a Server that owns a membership.List and a rumorstore.Store.
package gossip

import "time"

// Config tunes the SWIM detector and gossip transport.
type Config struct {
	// BindAddr is the local SWIM UDP listener address (default port 9638).
	BindAddr string
	// GossipBindAddr is the local gossip TCP listener address (default port 9639).
	GossipBindAddr string

	// Interval is the SWIM probe cycle period.
	Interval time.Duration
	// PingTimeout is how long to wait for a direct Ack before falling back
	// to indirect probing (T/3 by default).
	PingTimeout time.Duration
	// IndirectTimeout is how long to wait for a relayed Ack (2T/3 by default).
	IndirectTimeout time.Duration
	// SuspectTimeout is how long a member stays Suspect before being
	// marked Confirmed (~9T by default).
	SuspectTimeout time.Duration

	// IndirectFanout is PINGREQ_TARGETS: how many relays to ask on timeout.
	IndirectFanout int
	// PiggybackCount is how many Membership records ride along on each
	// SWIM message.
	PiggybackCount int

	// GossipInterval is the gossip push loop period (default 1Hz).
	GossipInterval time.Duration
	// GossipFanout is FANOUT: how many random live peers each push round targets.
	GossipFanout int

	// AckBufferSize is the capacity of the inbound-to-outbound Ack channel.
	AckBufferSize int

	// MaxDatagram bounds UDP reads.
	MaxDatagram int

	// ConfirmedGrace is how long a non-persistent member stays in the
	// member list after reaching Confirmed before it is garbage-collected.
	// Persistent members are never collected.
	ConfirmedGrace time.Duration
}

// DefaultConfig returns the stock production defaults.
func DefaultConfig() Config {
	return Config{
		BindAddr:        ":9638",
		GossipBindAddr:  ":9639",
		Interval:        1 * time.Second,
		PingTimeout:     333 * time.Millisecond,
		IndirectTimeout: 667 * time.Millisecond,
		SuspectTimeout:  9 * time.Second,
		IndirectFanout:  5,
		PiggybackCount:  10,
		GossipInterval:  1 * time.Second,
		GossipFanout:    5,
		AckBufferSize:   1024,
		MaxDatagram:     1024,
		ConfirmedGrace:  24 * time.Hour,
	}
}
