package gossip

import (
	"context"
	"io"
	"net"

	"github.com/tutu-network/gossipd/internal/domain"
	"github.com/tutu-network/gossipd/internal/wire"
)

// runGossipPull accepts pushed rumors on the gossip port and routes each
// into the rumor store (and, for Membership rumors, the member list too).
// Every accepted connection gets its own reader goroutine so multiple
// simultaneous pushers are drained concurrently and fairly.
func (s *Server) runGossipPull(ctx context.Context) {
	for {
		conn, err := s.gossipLn.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Printf("gossip pull accept: %v", err)
			continue
		}
		go s.servePullConn(ctx, conn)
	}
}

func (s *Server) servePullConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !s.sleepIfPaused(ctx) {
			return
		}
		raw, err := readFrame(conn)
		if err != nil {
			if err != io.EOF {
				s.logger.Printf("gossip pull read: %v", err)
			}
			return
		}
		s.handlePulledFrame(raw)
	}
}

func (s *Server) handlePulledFrame(raw []byte) {
	env, err := wire.DecodeEnvelope(raw)
	if err != nil {
		s.logger.Printf("gossip pull decode envelope: %v", err)
		return
	}
	body, err := s.ring.Open(env)
	if err != nil {
		s.logger.Printf("gossip pull open envelope: %v", err)
		return
	}
	r, err := wire.DecodeRumor(body)
	if err != nil {
		s.logger.Printf("gossip pull decode rumor: %v", err)
		return
	}
	rumorsReceived.WithLabelValues(r.Kind().String()).Inc()

	if mr, ok := r.(domain.MembershipRumor); ok {
		s.applyMembership(mr.Membership)
		return
	}

	if !s.rumors.Insert(r) {
		return
	}

	switch r.Kind() {
	case domain.RumorElection, domain.RumorElectionUpdate:
		s.onElectionMerged(r)
	case domain.RumorDeparture:
		s.applyDeparture(r.(domain.DepartureRumor).MemberID)
	}
}
