package gossip

import (
	"context"
	"net"
	"time"

	"github.com/tutu-network/gossipd/internal/domain"
)

// runOutbound is the probe scheduler: each tick it picks one live member,
// pings it directly, falls back to indirect probing via PingReq relays on
// timeout, and marks the target Suspect if neither succeeds. Target
// selection is a uniform random live pick each cycle, so every member
// probes every other roughly equally over many cycles.
func (s *Server) runOutbound(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
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
		s.probeCycle(ctx)
	}
}

func (s *Server) probeCycle(ctx context.Context) {
	self := s.selfMember()
	targets := s.members.RandomLive(1, map[string]bool{self.ID: true})
	if len(targets) == 0 {
		return
	}
	target := targets[0]

	span := s.tracer.StartSpan(ctx, "swim.probe_cycle", map[string]string{"target": target.ID})
	defer func() { s.tracer.EndSpan(span, nil) }()

	waiter := make(chan struct{}, 1)
	s.pending.Store(target.ID, waiter)
	defer s.pending.Delete(target.ID)

	addr := &net.UDPAddr{IP: net.ParseIP(target.Address), Port: int(target.SwimPort)}
	s.sendPing(addr, self, nil)
	probesSent.Inc()

	if s.waitFor(ctx, waiter, s.cfg.PingTimeout) {
		span.Attrs["outcome"] = "ack"
		return // direct Ack — target reinforced Alive by the ack router
	}

	span.Attrs["outcome"] = s.indirectProbe(ctx, target, waiter)
}

func (s *Server) indirectProbe(ctx context.Context, target domain.Member, waiter chan struct{}) string {
	self := s.selfMember()
	relays := s.members.RandomLive(s.cfg.IndirectFanout, map[string]bool{self.ID: true, target.ID: true})
	for _, relay := range relays {
		addr := &net.UDPAddr{IP: net.ParseIP(relay.Address), Port: int(relay.SwimPort)}
		s.sendPingReq(addr, target)
	}

	if len(relays) > 0 && s.waitFor(ctx, waiter, s.cfg.IndirectTimeout) {
		return "indirect_ack"
	}

	s.markSuspect(target)
	return "suspect"
}

// waitFor blocks until waiter fires, d elapses, or ctx is cancelled.
// Returns true only if waiter fired.
func (s *Server) waitFor(ctx context.Context, waiter chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-waiter:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// markSuspect transitions a member to Suspect and disseminates the
// Membership rumor recording it.
func (s *Server) markSuspect(target domain.Member) {
	if changed := s.members.SetHealth(target.ID, domain.HealthSuspect); !changed {
		return
	}
	suspectTransitions.Inc()
	membersAlive.Set(float64(s.members.AliveCount()))
	s.rumors.Insert(domain.MembershipRumor{
		Membership: domain.Membership{Member: target, Health: domain.HealthSuspect},
	})
}
