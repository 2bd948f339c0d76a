package gossip

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/tutu-network/gossipd/internal/domain"
	"github.com/tutu-network/gossipd/internal/wire"
)

// pushDialTimeout bounds how long a single gossip push connection attempt
// may take before the round moves on to the next peer.
const pushDialTimeout = 2 * time.Second

// runGossipPush periodically selects GossipFanout random live
// peers and push each its still-warm rumors over a short-lived TCP
// connection to the peer's gossip port. A fresh connection per round
// (rather than a held-open pool) is the simplest rendering of "fair-queued
// push" that still lets every receiver's runGossipPull drain all senders
// round-robin via its own Accept loop.
func (s *Server) runGossipPush(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.GossipInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !s.sleepIfPaused(ctx) {
			return
		}
		s.pushRound(ctx)
	}
}

func (s *Server) pushRound(ctx context.Context) {
	self := s.selfMember()
	peers := s.members.RandomLive(s.cfg.GossipFanout, map[string]bool{self.ID: true})
	if len(peers) == 0 {
		return
	}

	span := s.tracer.StartSpan(ctx, "gossip.push_round", map[string]string{
		"peers": strconv.Itoa(len(peers)),
	})
	sent := 0
	for _, peer := range peers {
		rumors := s.rumors.ForGossip(peer.ID)
		if len(rumors) == 0 {
			continue
		}
		s.pushTo(peer, rumors)
		sent += len(rumors)
	}
	span.Attrs["rumors"] = strconv.Itoa(sent)
	s.tracer.EndSpan(span, nil)
}

func (s *Server) pushTo(peer domain.Member, rumors []domain.Rumor) {
	conn, err := net.DialTimeout("tcp", peer.GossipAddr(), pushDialTimeout)
	if err != nil {
		s.logger.Printf("gossip push to %s: %v", peer.GossipAddr(), err)
		return
	}
	defer conn.Close()

	for _, r := range rumors {
		body, err := wire.EncodeRumor(r)
		if err != nil {
			s.logger.Printf("gossip push encode %s: %v", r.Kind(), err)
			continue
		}
		env := s.ring.Seal(body)
		raw := wire.EncodeEnvelope(env)
		if err := writeFrame(conn, raw); err != nil {
			s.logger.Printf("gossip push to %s: %v", peer.GossipAddr(), err)
			return
		}
		rumorsDisseminated.WithLabelValues(r.Kind().String()).Inc()
	}
}
