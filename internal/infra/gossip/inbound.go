package gossip

import (
	"context"
	"net"

	"github.com/tutu-network/gossipd/internal/domain"
	"github.com/tutu-network/gossipd/internal/wire"
)

// runInbound is the single blocking-recv SWIM loop: one goroutine per UDP
// socket, a fixed-size buffer, and a 1s read deadline so
// ctx cancellation and the pause flag are checked promptly without a
// second dedicated goroutine per connection.
func (s *Server) runInbound(ctx context.Context) {
	buf := make([]byte, s.cfg.MaxDatagram)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !s.sleepIfPaused(ctx) {
			return
		}

		s.conn.SetReadDeadline(timeNowAdd(readDeadline))
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if isTimeoutOrWouldBlock(err) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			s.logger.Printf("recv: %v", err)
			continue
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		s.handleDatagram(datagram, addr)
	}
}

func (s *Server) handleDatagram(datagram []byte, addr *net.UDPAddr) {
	env, err := wire.DecodeEnvelope(datagram)
	if err != nil {
		s.logger.Printf("decode envelope from %s: %v", addr, err)
		return
	}
	body, err := s.ring.Open(env)
	if err != nil {
		s.logger.Printf("open envelope from %s: %v", addr, err)
		return
	}
	msg, err := wire.DecodeSwim(body)
	if err != nil {
		s.logger.Printf("decode swim from %s: %v", addr, err)
		return
	}

	// Blacklist check — Acks that still need routing to a forward_to
	// target pass through regardless.
	if s.isBlacklisted(msg.From.ID) && !(msg.Type == wire.SwimAck && msg.ForwardTo != nil) {
		return
	}

	switch msg.Type {
	case wire.SwimPing:
		s.processPing(addr, msg)
	case wire.SwimAck:
		s.processAck(addr, msg)
	case wire.SwimPingReq:
		s.processPingReq(addr, msg)
	}
	s.ingestPiggyback(msg.Membership)
}

// processPing replies with an Ack (passing through any forward_to it
// itself received, so a relayed Ping's Ack routes back to the original
// requester), rewrites the sender's address to the observed remote IP, and
// inserts the sender as Alive or Departed per its own departed flag.
func (s *Server) processPing(addr *net.UDPAddr, msg wire.SwimMessage) {
	from := msg.From
	from.Address = addr.IP.String()

	health := domain.HealthAlive
	if from.Departed {
		health = domain.HealthDeparted
	}
	s.applyMembership(domain.Membership{Member: from, Health: health})

	s.sendAck(addr, msg.ForwardTo)
}

// processAck routes an Ack either to the local ack router (direct probe
// completion) or forwards it, datagram content unchanged except for the
// NAT-corrected from.address, to forward_to's address.
func (s *Server) processAck(addr *net.UDPAddr, msg wire.SwimMessage) {
	self := s.selfMember()
	if msg.ForwardTo != nil && msg.ForwardTo.ID != self.ID {
		fixed := msg
		fixed.From.Address = addr.IP.String()
		target := &net.UDPAddr{IP: net.ParseIP(msg.ForwardTo.Address), Port: int(msg.ForwardTo.SwimPort)}
		s.sendSwim(target, fixed)
		return
	}

	env := ackEnvelope{addr: addr, msg: msg}
	select {
	case s.ackCh <- env:
	default:
		panic("gossip: inbound-to-outbound ack channel overflow — outbound loop unresponsive")
	}
}

// processPingReq forwards a Ping to target on the requester's behalf,
// rewriting from.address to the observed remote IP so the eventual Ack
// forwards correctly.
func (s *Server) processPingReq(addr *net.UDPAddr, msg wire.SwimMessage) {
	indirectProbesSent.Inc()
	from := msg.From
	from.Address = addr.IP.String()

	targetAddr := &net.UDPAddr{IP: net.ParseIP(msg.Target.Address), Port: int(msg.Target.SwimPort)}
	s.sendPing(targetAddr, s.selfMember(), &from)
}

// runAckRouter drains the bounded ack channel and wakes whichever probe is
// waiting on that target, reinforcing the target as Alive along the way.
func (s *Server) runAckRouter(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-s.ackCh:
			s.applyMembership(domain.Membership{Member: env.msg.From, Health: domain.HealthAlive})
			if ch, ok := s.pending.Load(env.msg.From.ID); ok {
				select {
				case ch.(chan struct{}) <- struct{}{}:
				default:
				}
			}
		}
	}
}
