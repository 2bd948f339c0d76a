package gossip

import (
	"net"

	"github.com/tutu-network/gossipd/internal/domain"
	"github.com/tutu-network/gossipd/internal/wire"
)

// sendSwim encodes, optionally encrypts, and writes a single SWIM UDP
// datagram. Errors are logged, never returned upward — outbound socket
// failures are treated the same as inbound ones: drop and continue.
func (s *Server) sendSwim(addr *net.UDPAddr, msg wire.SwimMessage) {
	body := wire.EncodeSwim(msg)
	env := s.ring.Seal(body)
	raw := wire.EncodeEnvelope(env)
	if _, err := s.conn.WriteToUDP(raw, addr); err != nil {
		s.logger.Printf("write to %s: %v", addr, err)
	}
}

// sendPing sends a direct (or, with forwardTo set, indirectly-relayed) Ping
// to addr, piggybacking a snapshot of the member list.
func (s *Server) sendPing(addr *net.UDPAddr, from domain.Member, forwardTo *domain.Member) {
	if from.ID == "" {
		from = s.selfMember()
	}
	s.sendSwim(addr, wire.SwimMessage{
		Type:       wire.SwimPing,
		Membership: s.snapshotPiggyback(),
		From:       from,
		ForwardTo:  forwardTo,
	})
}

// sendAck replies to addr with an Ack, passing through forwardTo unchanged
// when this Ping was itself a relayed indirect probe.
func (s *Server) sendAck(addr *net.UDPAddr, forwardTo *domain.Member) {
	s.sendSwim(addr, wire.SwimMessage{
		Type:       wire.SwimAck,
		Membership: s.snapshotPiggyback(),
		From:       s.selfMember(),
		ForwardTo:  forwardTo,
	})
}

// sendPingReq asks addr to indirectly probe target on our behalf.
func (s *Server) sendPingReq(addr *net.UDPAddr, target domain.Member) {
	s.sendSwim(addr, wire.SwimMessage{
		Type:       wire.SwimPingReq,
		Membership: s.snapshotPiggyback(),
		From:       s.selfMember(),
		Target:     target,
	})
}

// ingestPiggyback merges every piggybacked Membership into the local
// member list, firing onJoin/onLeave as appropriate.
func (s *Server) ingestPiggyback(list []domain.Membership) {
	for _, ms := range list {
		s.applyMembership(ms)
	}
}

// applyMembership merges one Membership observation, firing callbacks and
// immediately gossiping any refutation the merge produces.
func (s *Server) applyMembership(ms domain.Membership) {
	// A latched Departure outranks any Membership observation for the same
	// id, whatever its incarnation — a departed member never comes back.
	depKey := domain.StoreKey{Kind: domain.RumorDeparture, Key: "departure", ID: ms.Member.ID}
	if _, departed := s.rumors.Get(depKey); departed {
		ms.Health = domain.HealthDeparted
	}

	wasKnown := false
	if h, ok := s.members.HealthOf(ms.Member.ID); ok {
		wasKnown = h == domain.HealthAlive || h == domain.HealthSuspect
	}

	changed, refutation := s.members.Insert(ms)
	if !changed {
		return
	}

	if refutation != nil {
		refutations.Inc()
		s.rumors.Insert(domain.MembershipRumor{Membership: *refutation})
		return
	}

	s.rumors.Insert(domain.MembershipRumor{Membership: ms})
	membersAlive.Set(float64(s.members.AliveCount()))

	isNowLive := ms.Health == domain.HealthAlive || ms.Health == domain.HealthSuspect
	if !wasKnown && isNowLive && s.onJoin != nil {
		s.onJoin(ms.Member.ID)
	}
	if wasKnown && !isNowLive && s.onLeave != nil {
		s.onLeave(ms.Member.ID)
	}
}
