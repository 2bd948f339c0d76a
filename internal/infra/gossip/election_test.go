package gossip

import (
	"testing"

	"github.com/tutu-network/gossipd/internal/domain"
)

func TestStartElection_SelfVoteNotYetFinished(t *testing.T) {
	s := newTestServer(t, "node-1", 29401, 29402)
	// A second live, non-voting member keeps a single self-vote short of
	// the strict majority this service group's election needs.
	s.Members().Insert(domain.Membership{
		Member: domain.Member{ID: "node-2", Address: "127.0.0.1", SwimPort: 1},
		Health: domain.HealthAlive,
	})

	s.StartElection("web.default", 10)

	winner, finished := s.ElectionWinner("web.default")
	if winner != "node-1" {
		t.Errorf("winner = %q, want node-1", winner)
	}
	if finished {
		t.Error("a lone self-vote out of two live members should not already have quorum")
	}
}

func TestFinalizeElection_QuorumFinishes(t *testing.T) {
	s := newTestServer(t, "node-1", 29403, 29404)

	// Seed two more live members so AliveCount() == 3 and a 2-vote quorum
	// is reachable.
	s.Members().Insert(domain.Membership{
		Member: domain.Member{ID: "node-2", Address: "127.0.0.1", SwimPort: 1},
		Health: domain.HealthAlive,
	})
	s.Members().Insert(domain.Membership{
		Member: domain.Member{ID: "node-3", Address: "127.0.0.1", SwimPort: 1},
		Health: domain.HealthAlive,
	})

	s.StartElection("web.default", 10)
	if _, finished := s.ElectionWinner("web.default"); finished {
		t.Fatal("election should not be finished with only one vote of three")
	}

	// Simulate a pulled update from node-2 that votes for node-1 at the
	// same term and suitability — the union of votes now covers 2/3.
	current, ok := s.Rumors().Get(domain.StoreKey{Kind: domain.RumorElection, Key: "web.default", ID: "election"})
	if !ok {
		t.Fatal("election rumor should exist after StartElection")
	}
	election, _, ok := unwrapElection(current)
	if !ok {
		t.Fatal("unwrapElection failed on a freshly started election")
	}
	incoming := election
	incoming.Votes = []string{"node-1", "node-2"}

	if !s.Rumors().Insert(incoming) {
		t.Fatal("expected the extra vote to change the stored rumor")
	}
	s.onElectionMerged(incoming)

	winner, finished := s.ElectionWinner("web.default")
	if winner != "node-1" {
		t.Errorf("winner = %q, want node-1", winner)
	}
	if !finished {
		t.Error("election with 2/3 votes should be Finished")
	}
}

func TestFinalizeElection_RepeatedCallStaysFinished(t *testing.T) {
	s := newTestServer(t, "node-1", 29405, 29406)
	s.Members().Insert(domain.Membership{
		Member: domain.Member{ID: "node-2", Address: "127.0.0.1", SwimPort: 1},
		Health: domain.HealthAlive,
	})

	key := domain.StoreKey{Kind: domain.RumorElection, Key: "web.default", ID: "election"}
	s.Rumors().Insert(domain.ElectionRumor{
		MemberID:     "node-1",
		ServiceGroup: "web.default",
		Term:         1,
		Suitability:  10,
		Status:       domain.ElectionRunning,
		Votes:        []string{"node-1", "node-2"},
	})

	// AliveCount()==2, votes==2 gives a strict majority (2*2 > 2).
	// Calling finalizeElection twice must not panic and leaves the election
	// Finished.
	s.finalizeElection(key)
	s.finalizeElection(key)

	_, finished := s.ElectionWinner("web.default")
	if !finished {
		t.Fatal("election should have finished once votes covered a strict majority")
	}
}
