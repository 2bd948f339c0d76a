// Package daemon is the composition root: it turns a Config into a running
// gossip.Server plus its debug HTTP surface.
package daemon

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tutu-network/gossipd/internal/infra/gossip"
)

// Config is the root on-disk configuration for a gossipd process. Every
// section mirrors one package: Member seeds the local domain.Member,
// Swim/Gossip tune internal/infra/gossip.Config, Crypto selects the
// envelope ring key, Debug controls the internal/debughttp mount.
type Config struct {
	Member MemberConfig `toml:"member"`
	Swim   SwimConfig   `toml:"swim"`
	Gossip GossipConfig `toml:"gossip"`
	Crypto CryptoConfig `toml:"crypto"`
	Debug  DebugConfig  `toml:"debug"`
}

// MemberConfig identifies this node to the rest of the cluster.
type MemberConfig struct {
	// ID is this node's member-id. Left empty, one is minted at startup
	// via domain.NewMemberID() and should be persisted by the caller for
	// the next restart — this package does not persist it itself.
	ID string `toml:"id"`
	// Address is the host other members dial for both the SWIM and gossip
	// ports (the port numbers come from Swim.BindAddr/Gossip.BindAddr).
	Address string `toml:"address"`
	// Persistent members are never garbage-collected once Confirmed. Like
	// any Confirmed member, they are not probed again after that.
	Persistent bool `toml:"persistent"`
	// Seeds are "host:port" SWIM addresses to Join() at startup.
	Seeds []string `toml:"seeds"`
}

// SwimConfig tunes the failure detector. Durations are TOML strings
// (e.g. "333ms") parsed with time.ParseDuration.
type SwimConfig struct {
	BindAddr        string `toml:"bind_addr"`
	Interval        string `toml:"interval"`
	PingTimeout     string `toml:"ping_timeout"`
	IndirectTimeout string `toml:"indirect_timeout"`
	SuspectTimeout  string `toml:"suspect_timeout"`
	ConfirmedGrace  string `toml:"confirmed_grace"`
	IndirectFanout  int    `toml:"indirect_fanout"`
	PiggybackCount  int    `toml:"piggyback_count"`
}

// GossipConfig tunes the rumor push/pull transport.
type GossipConfig struct {
	BindAddr string `toml:"bind_addr"`
	Interval string `toml:"interval"`
	Fanout   int    `toml:"fanout"`
}

// CryptoConfig selects whether the wire envelope is secretbox-sealed.
type CryptoConfig struct {
	Enabled bool `toml:"enabled"`
	// RingKey is a 64-character hex string decoding to the 32-byte
	// pre-shared secretbox key. Required when Enabled is true.
	RingKey string `toml:"ring_key"`
}

// DebugConfig controls the internal/debughttp introspection mount.
type DebugConfig struct {
	Enabled  bool   `toml:"enabled"`
	BindAddr string `toml:"bind_addr"`
}

// DefaultConfig returns the stock defaults: SWIM on
// :9638, gossip on :9639, encryption off, debug surface on :9640.
func DefaultConfig() Config {
	return Config{
		Member: MemberConfig{
			Address:    "127.0.0.1",
			Persistent: false,
		},
		Swim: SwimConfig{
			BindAddr:        ":9638",
			Interval:        "1s",
			PingTimeout:     "333ms",
			IndirectTimeout: "667ms",
			SuspectTimeout:  "9s",
			ConfirmedGrace:  "24h",
			IndirectFanout:  5,
			PiggybackCount:  10,
		},
		Gossip: GossipConfig{
			BindAddr: ":9639",
			Interval: "1s",
			Fanout:   5,
		},
		Crypto: CryptoConfig{Enabled: false},
		Debug:  DebugConfig{Enabled: true, BindAddr: ":9640"},
	}
}

// LoadConfig reads and decodes a TOML config file on top of DefaultConfig,
// so a file that only overrides a handful of fields still gets sane
// defaults for the rest.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("daemon: load config %s: %w", path, err)
	}
	return cfg, nil
}

// parseDuration parses a Go duration string, falling back to def when s is
// empty or malformed.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// portOf extracts the numeric port from a "host:port" bind address, for
// advertising in domain.Member.SwimPort/GossipPort. A bind address with an
// OS-assigned port (":0") has no fixed port to advertise and yields 0 —
// callers binding to ":0" are expected to be tests, not production nodes.
func portOf(bindAddr string) int32 {
	_, portStr, err := net.SplitHostPort(bindAddr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return int32(port)
}

// toGossipConfig converts the TOML-facing sections into the
// internal/infra/gossip.Config the Server actually runs with.
func (c Config) toGossipConfig() gossip.Config {
	g := gossip.DefaultConfig()
	g.BindAddr = c.Swim.BindAddr
	g.GossipBindAddr = c.Gossip.BindAddr
	g.Interval = parseDuration(c.Swim.Interval, g.Interval)
	g.PingTimeout = parseDuration(c.Swim.PingTimeout, g.PingTimeout)
	g.IndirectTimeout = parseDuration(c.Swim.IndirectTimeout, g.IndirectTimeout)
	g.SuspectTimeout = parseDuration(c.Swim.SuspectTimeout, g.SuspectTimeout)
	g.ConfirmedGrace = parseDuration(c.Swim.ConfirmedGrace, g.ConfirmedGrace)
	if c.Swim.IndirectFanout > 0 {
		g.IndirectFanout = c.Swim.IndirectFanout
	}
	if c.Swim.PiggybackCount > 0 {
		g.PiggybackCount = c.Swim.PiggybackCount
	}
	g.GossipInterval = parseDuration(c.Gossip.Interval, g.GossipInterval)
	if c.Gossip.Fanout > 0 {
		g.GossipFanout = c.Gossip.Fanout
	}
	return g
}
