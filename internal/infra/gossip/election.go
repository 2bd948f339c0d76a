package gossip

import (
	"sync"

	"github.com/tutu-network/gossipd/internal/domain"
)

// electionState is the local coordinator's bookkeeping for one service
// group's highlander election. The authoritative vote/term/status
// data lives in the rumor store as an ElectionRumor/ElectionUpdateRumor;
// electionState only tracks what this node has already acted on, so a
// repeated merge of the same winning rumor doesn't re-fire onLeave-style
// callbacks or re-increment the finished counter.
type electionState struct {
	mu       sync.Mutex
	finished bool
}

// StartElection begins this node's participation in a service group's
// leader election: it casts a self-vote at the next term and inserts the
// resulting Election rumor into the store so the next gossip round
// disseminates it. suitability is caller-supplied (e.g. uptime, load, or a
// fixed priority); higher wins, with member-id breaking exact ties.
func (s *Server) StartElection(serviceGroup string, suitability uint64) {
	self := s.selfMember()
	term := s.nextElectionTerm(serviceGroup)
	election := domain.NewElection(self.ID, serviceGroup, term, suitability)

	s.electionsMu.Lock()
	s.elections[serviceGroup] = &electionState{}
	s.electionsMu.Unlock()

	if s.rumors.Insert(election) {
		s.finalizeElection(domain.KeyOf(election))
	}
}

// nextElectionTerm returns one past the term of any election already known
// for serviceGroup, or 1 for a fresh election.
func (s *Server) nextElectionTerm(serviceGroup string) uint64 {
	key := domain.StoreKey{Kind: domain.RumorElection, Key: serviceGroup, ID: "election"}
	if r, ok := s.rumors.Get(key); ok {
		if e, _, ok := unwrapElection(r); ok {
			return e.Term + 1
		}
	}
	return 1
}

// ElectionWinner reports the current leader known for a service group and
// whether that election has reached Finished status. It reads whatever the
// rumor store currently holds, so the answer is only as fresh as the last
// merged rumor.
func (s *Server) ElectionWinner(serviceGroup string) (memberID string, finished bool) {
	key := domain.StoreKey{Kind: domain.RumorElection, Key: serviceGroup, ID: "election"}
	r, ok := s.rumors.Get(key)
	if !ok {
		return "", false
	}
	e, _, ok := unwrapElection(r)
	if !ok {
		return "", false
	}
	return e.MemberID, e.Status == domain.ElectionFinished
}

// onElectionMerged is called from the gossip-pull path after an incoming
// Election/ElectionUpdate rumor has changed the store — a pulled vote may
// tip a service group's election over quorum. It re-reads the merged
// result, and if the voter set now covers a strict majority of live
// members, marks the rumor Finished and re-inserts it so the absorbing
// result disseminates to the rest of the cluster.
func (s *Server) onElectionMerged(r domain.Rumor) {
	s.finalizeElection(domain.KeyOf(r))
}

func (s *Server) finalizeElection(key domain.StoreKey) {
	r, ok := s.rumors.Get(key)
	if !ok {
		return
	}
	election, isUpdate, ok := unwrapElection(r)
	if !ok || election.Status == domain.ElectionFinished {
		return
	}
	if !domain.HasQuorum(election.Votes, s.members.AliveCount()) {
		return
	}

	state := s.electionStateFor(election.ServiceGroup)
	state.mu.Lock()
	alreadyFinished := state.finished
	state.finished = true
	state.mu.Unlock()

	election.Status = domain.ElectionFinished
	var finished domain.Rumor
	if isUpdate {
		finished = domain.ElectionUpdateRumor{ElectionRumor: election}
	} else {
		finished = election
	}
	s.rumors.Insert(finished)

	if !alreadyFinished {
		electionsFinished.Inc()
	}
}

func (s *Server) electionStateFor(serviceGroup string) *electionState {
	s.electionsMu.Lock()
	defer s.electionsMu.Unlock()
	st, ok := s.elections[serviceGroup]
	if !ok {
		st = &electionState{}
		s.elections[serviceGroup] = st
	}
	return st
}

// unwrapElection extracts the common ElectionRumor fields from either
// concrete election rumor variant, reporting whether r was an
// ElectionUpdateRumor (so the caller can re-wrap a modified copy in the
// same concrete type it started as).
func unwrapElection(r domain.Rumor) (election domain.ElectionRumor, isUpdate bool, ok bool) {
	switch v := r.(type) {
	case domain.ElectionRumor:
		return v, false, true
	case domain.ElectionUpdateRumor:
		return v.ElectionRumor, true, true
	default:
		return domain.ElectionRumor{}, false, false
	}
}
