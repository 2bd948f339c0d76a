package domain

import (
	"testing"
)

func TestNewElection_SelfVote(t *testing.T) {
	e := NewElection("aaaa", "web.prod", 1, 7)
	if e.MemberID != "aaaa" || e.FromID != "aaaa" {
		t.Errorf("a fresh election should vote for its creator, got member_id=%q from=%q", e.MemberID, e.FromID)
	}
	if e.Status != ElectionRunning {
		t.Errorf("Status = %v, want running", e.Status)
	}
	if len(e.Votes) != 1 || e.Votes[0] != "aaaa" {
		t.Errorf("Votes = %v, want [aaaa]", e.Votes)
	}
}

func TestElectionStatus_String(t *testing.T) {
	tests := []struct {
		s    ElectionStatus
		want string
	}{
		{ElectionRunning, "running"},
		{ElectionNoQuorum, "no_quorum"},
		{ElectionFinished, "finished"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestElection_Merge(t *testing.T) {
	base := func() ElectionRumor {
		return ElectionRumor{
			MemberID: "aaaa", ServiceGroup: "web.prod", Term: 2,
			Suitability: 5, Status: ElectionRunning, Votes: []string{"aaaa"},
		}
	}

	t.Run("identical rumor is a no-op", func(t *testing.T) {
		l := base()
		merged, changed := l.Merge(base())
		if changed {
			t.Error("merging an identical election should not change state")
		}
		if merged.(ElectionRumor).MemberID != "aaaa" {
			t.Errorf("MemberID = %q", merged.(ElectionRumor).MemberID)
		}
	})

	t.Run("finished at greater term is adopted", func(t *testing.T) {
		in := base()
		in.MemberID = "bbbb"
		in.Term = 3
		in.Status = ElectionFinished
		merged, changed := base().Merge(in)
		if !changed || merged.(ElectionRumor).MemberID != "bbbb" {
			t.Errorf("finished election at a later term should win: %+v changed=%v", merged, changed)
		}
	})

	t.Run("finished at equal term is adopted", func(t *testing.T) {
		in := base()
		in.MemberID = "bbbb"
		in.Suitability = 1 // even a lower suitability, Finished is absorbing
		in.Status = ElectionFinished
		merged, changed := base().Merge(in)
		if !changed || merged.(ElectionRumor).MemberID != "bbbb" {
			t.Errorf("finished election at an equal term should win: %+v changed=%v", merged, changed)
		}
	})

	t.Run("local finished at equal term is kept", func(t *testing.T) {
		l := base()
		l.Status = ElectionFinished
		in := base()
		in.MemberID = "bbbb"
		in.Suitability = 100
		merged, changed := l.Merge(in)
		if changed || merged.(ElectionRumor).MemberID != "aaaa" {
			t.Errorf("a locally finished election at the same term must be kept: %+v", merged)
		}
	})

	t.Run("greater local term is kept and re-gossiped", func(t *testing.T) {
		in := base()
		in.MemberID = "bbbb"
		in.Term = 1
		in.Suitability = 100
		merged, changed := base().Merge(in)
		if merged.(ElectionRumor).MemberID != "aaaa" {
			t.Errorf("stale-term election should lose: %+v", merged)
		}
		if !changed {
			t.Error("keeping the local rumor against a stale term should still refresh dissemination")
		}
	})

	t.Run("higher suitability steals votes", func(t *testing.T) {
		in := base()
		in.MemberID = "bbbb"
		in.Suitability = 9
		in.Votes = []string{"bbbb", "cccc"}
		merged, changed := base().Merge(in)
		e := merged.(ElectionRumor)
		if !changed || e.MemberID != "bbbb" {
			t.Fatalf("higher suitability should win: %+v", e)
		}
		if len(e.Votes) != 3 {
			t.Errorf("winner should hold the union of votes, got %v", e.Votes)
		}
	})

	t.Run("lower incoming suitability loses its votes", func(t *testing.T) {
		in := base()
		in.MemberID = "bbbb"
		in.Suitability = 1
		in.Votes = []string{"bbbb"}
		merged, changed := base().Merge(in)
		e := merged.(ElectionRumor)
		if !changed || e.MemberID != "aaaa" {
			t.Fatalf("lower suitability should lose: %+v", e)
		}
		if len(e.Votes) != 2 {
			t.Errorf("local winner should absorb the loser's votes, got %v", e.Votes)
		}
	})

	t.Run("equal suitability breaks ties on member id", func(t *testing.T) {
		in := base()
		in.MemberID = "bbbb"
		in.Votes = []string{"bbbb"}
		merged, _ := base().Merge(in)
		if got := merged.(ElectionRumor).MemberID; got != "bbbb" {
			t.Errorf("tie should go to the greater member id, got %q", got)
		}
	})
}

func TestStealVotes_PreservesOrderAndDedupes(t *testing.T) {
	got := stealVotesInto([]string{"a", "b"}, []string{"b", "c", "a", "d"})
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// Four members with suitabilities 0, 0, 1, 0 all vote for themselves; after
// repeated pairwise merges every member must hold the same winner — the one
// with maximum suitability — with all four votes accumulated.
func TestElection_ConvergesToMaxSuitability(t *testing.T) {
	ids := []string{"aaaa", "bbbb", "cccc", "dddd"}
	suits := []uint64{0, 0, 1, 0}

	states := make(map[string]ElectionRumor, len(ids))
	for i, id := range ids {
		states[id] = NewElection(id, "web.prod", 1, suits[i])
	}

	for round := 0; round < len(ids); round++ {
		for _, a := range ids {
			for _, b := range ids {
				if a == b {
					continue
				}
				merged, _ := states[a].Merge(states[b])
				states[a] = merged.(ElectionRumor)
			}
		}
	}

	for _, id := range ids {
		e := states[id]
		if e.MemberID != "cccc" {
			t.Errorf("member %s converged to %q, want cccc", id, e.MemberID)
		}
		if len(e.Votes) != len(ids) {
			t.Errorf("member %s holds %d votes, want %d: %v", id, len(e.Votes), len(ids), e.Votes)
		}
	}
}

// With all suitabilities equal, the tie-break must deterministically pick
// the same member id everywhere.
func TestElection_TieBreakIsDeterministic(t *testing.T) {
	ids := []string{"aaaa", "bbbb", "cccc", "dddd"}

	states := make(map[string]ElectionRumor, len(ids))
	for _, id := range ids {
		states[id] = NewElection(id, "web.prod", 1, 0)
	}

	for round := 0; round < len(ids); round++ {
		for _, a := range ids {
			for _, b := range ids {
				if a == b {
					continue
				}
				merged, _ := states[a].Merge(states[b])
				states[a] = merged.(ElectionRumor)
			}
		}
	}

	for _, id := range ids {
		if got := states[id].MemberID; got != "dddd" {
			t.Errorf("member %s converged to %q, want dddd (greatest id wins ties)", id, got)
		}
	}
}

func TestHasQuorum(t *testing.T) {
	tests := []struct {
		votes []string
		live  int
		want  bool
	}{
		{[]string{"a"}, 1, true},
		{[]string{"a"}, 2, false},
		{[]string{"a", "b"}, 3, true},
		{[]string{"a", "b"}, 4, false},
		{[]string{"a", "b", "c"}, 4, true},
		{nil, 0, false},
	}
	for _, tt := range tests {
		if got := HasQuorum(tt.votes, tt.live); got != tt.want {
			t.Errorf("HasQuorum(%d votes, %d live) = %v, want %v", len(tt.votes), tt.live, got, tt.want)
		}
	}
}

func TestElectionUpdate_KeepsDistinctKind(t *testing.T) {
	e := NewElection("aaaa", "web.prod", 2, 0)
	u := ElectionUpdateRumor{ElectionRumor: e}

	if u.Kind() != RumorElectionUpdate {
		t.Errorf("Kind() = %v, want election_update", u.Kind())
	}
	if e.Kind() != RumorElection {
		t.Errorf("Kind() = %v, want election", e.Kind())
	}
	// Same key/id, different kind: the two never share a store slot, so a
	// restarted election cannot collide with the finished prior.
	if KeyOf(u) == KeyOf(e) {
		t.Error("Election and ElectionUpdate rumors must key to different store slots")
	}
}

func TestElectionUpdate_MergeMatchesElection(t *testing.T) {
	l := ElectionUpdateRumor{ElectionRumor: NewElection("aaaa", "web.prod", 1, 1)}
	in := ElectionUpdateRumor{ElectionRumor: NewElection("bbbb", "web.prod", 1, 5)}

	merged, changed := l.Merge(in)
	e := merged.(ElectionUpdateRumor)
	if !changed || e.MemberID != "bbbb" {
		t.Errorf("update merge should follow the election rules: %+v", e)
	}
	if len(e.Votes) != 2 {
		t.Errorf("winner should hold both votes, got %v", e.Votes)
	}
}
