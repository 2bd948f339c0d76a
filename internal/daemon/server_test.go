package daemon

import (
	"strings"
	"testing"
)

func TestNew_MintsMemberIDWhenEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Swim.BindAddr = "127.0.0.1:0"
	cfg.Gossip.BindAddr = "127.0.0.1:0"
	cfg.Debug.Enabled = false

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	self := s.Gossip().Members().Self()
	if self.ID == "" {
		t.Error("expected a minted member-id, got empty string")
	}
}

func TestNew_RejectsMalformedRingKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crypto.Enabled = true
	cfg.Crypto.RingKey = "not-hex"

	if _, err := New(cfg); err == nil {
		t.Fatal("expected New to reject a non-hex ring key")
	}
}

func TestNew_RejectsWrongLengthRingKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crypto.Enabled = true
	cfg.Crypto.RingKey = "aabbcc" // far shorter than 32 bytes hex-encoded

	_, err := New(cfg)
	if err == nil {
		t.Fatal("expected New to reject a short ring key")
	}
	if !strings.Contains(err.Error(), "32 bytes") {
		t.Errorf("error = %q, want it to mention the required 32 bytes", err)
	}
}
