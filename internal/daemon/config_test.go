package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Member.Address != "127.0.0.1" {
		t.Errorf("Member.Address = %q, want %q", cfg.Member.Address, "127.0.0.1")
	}
	if cfg.Member.Persistent {
		t.Error("Member.Persistent should be false by default")
	}

	if cfg.Swim.BindAddr != ":9638" {
		t.Errorf("Swim.BindAddr = %q, want :9638", cfg.Swim.BindAddr)
	}
	if cfg.Swim.SuspectTimeout != "9s" {
		t.Errorf("Swim.SuspectTimeout = %q, want 9s", cfg.Swim.SuspectTimeout)
	}
	if cfg.Swim.IndirectFanout != 5 {
		t.Errorf("Swim.IndirectFanout = %d, want 5", cfg.Swim.IndirectFanout)
	}

	if cfg.Gossip.BindAddr != ":9639" {
		t.Errorf("Gossip.BindAddr = %q, want :9639", cfg.Gossip.BindAddr)
	}
	if cfg.Gossip.Fanout != 5 {
		t.Errorf("Gossip.Fanout = %d, want 5", cfg.Gossip.Fanout)
	}

	if cfg.Crypto.Enabled {
		t.Error("Crypto.Enabled should be false by default")
	}

	if !cfg.Debug.Enabled {
		t.Error("Debug.Enabled should be true by default")
	}
	if cfg.Debug.BindAddr != ":9640" {
		t.Errorf("Debug.BindAddr = %q, want :9640", cfg.Debug.BindAddr)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		def   time.Duration
		want  time.Duration
	}{
		{"333ms", time.Second, 333 * time.Millisecond},
		{"9s", time.Second, 9 * time.Second},
		{"", time.Second, time.Second},
		{"not-a-duration", 2 * time.Second, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseDuration(tt.input, tt.def)
			if got != tt.want {
				t.Errorf("parseDuration(%q, %v) = %v, want %v", tt.input, tt.def, got, tt.want)
			}
		})
	}
}

func TestPortOf(t *testing.T) {
	tests := []struct {
		addr string
		want int32
	}{
		{":9638", 9638},
		{"127.0.0.1:9639", 9639},
		{":0", 0},
		{"not-an-addr", 0},
	}

	for _, tt := range tests {
		if got := portOf(tt.addr); got != tt.want {
			t.Errorf("portOf(%q) = %d, want %d", tt.addr, got, tt.want)
		}
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gossipd.toml")
	body := `
[member]
id = "node-1"
address = "10.0.0.5"

[swim]
bind_addr = ":19638"

[gossip]
fanout = 8
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Member.ID != "node-1" {
		t.Errorf("Member.ID = %q, want node-1", cfg.Member.ID)
	}
	if cfg.Member.Address != "10.0.0.5" {
		t.Errorf("Member.Address = %q, want 10.0.0.5", cfg.Member.Address)
	}
	if cfg.Swim.BindAddr != ":19638" {
		t.Errorf("Swim.BindAddr = %q, want :19638", cfg.Swim.BindAddr)
	}
	if cfg.Gossip.Fanout != 8 {
		t.Errorf("Gossip.Fanout = %d, want 8", cfg.Gossip.Fanout)
	}
	// Untouched fields still carry their defaults.
	if cfg.Swim.SuspectTimeout != "9s" {
		t.Errorf("Swim.SuspectTimeout = %q, want default 9s", cfg.Swim.SuspectTimeout)
	}
	if cfg.Debug.BindAddr != ":9640" {
		t.Errorf("Debug.BindAddr = %q, want default :9640", cfg.Debug.BindAddr)
	}
}
