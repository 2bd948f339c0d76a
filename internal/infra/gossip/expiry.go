package gossip

import (
	"context"
	"time"

	"github.com/tutu-network/gossipd/internal/domain"
)

// expiryTick is how often the suspect→confirm timer is checked.
const expiryTick = 200 * time.Millisecond

// runExpiry drives the suspect-to-confirm timer: once a Suspect's age
// exceeds SuspectTimeout, transition it to Confirmed and disseminate the
// rumor.
func (s *Server) runExpiry(ctx context.Context) {
	ticker := time.NewTicker(expiryTick)
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
		s.confirmExpiredSuspects()
		s.gcConfirmed()
	}
}

func (s *Server) confirmExpiredSuspects() {
	now := time.Now()
	var expired []string
	s.members.EachSuspect(func(id string, since time.Time) {
		if now.Sub(since) >= s.cfg.SuspectTimeout {
			expired = append(expired, id)
		}
	})

	for _, id := range expired {
		var member domain.Member
		s.members.WithMember(id, func(ms domain.Membership) { member = ms.Member })

		if changed := s.members.SetHealth(id, domain.HealthConfirmed); changed {
			confirmTransitions.Inc()
			membersAlive.Set(float64(s.members.AliveCount()))
			s.rumors.Insert(domain.MembershipRumor{
				Membership: domain.Membership{Member: member, Health: domain.HealthConfirmed},
			})
			if s.onLeave != nil {
				s.onLeave(id)
			}
		}
	}
}

// gcConfirmed drops a non-persistent member that has sat Confirmed for
// ConfirmedGrace from the list entirely, rather than retaining it forever
// like a persistent member would be. This only ever
// trims local bookkeeping — it does not emit a rumor, since Confirmed
// already disseminated the state every peer needs.
func (s *Server) gcConfirmed() {
	now := time.Now()
	var stale []string
	s.members.EachConfirmedNonPersistent(func(id string, since time.Time) {
		if now.Sub(since) >= s.cfg.ConfirmedGrace {
			stale = append(stale, id)
		}
	})

	for _, id := range stale {
		if s.members.Remove(id) {
			membersAlive.Set(float64(s.members.AliveCount()))
		}
	}
}
