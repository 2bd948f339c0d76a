package domain

// ElectionStatus is the lifecycle state of a highlander election.
type ElectionStatus int

const (
	ElectionRunning ElectionStatus = iota
	ElectionNoQuorum
	ElectionFinished
)

func (s ElectionStatus) String() string {
	switch s {
	case ElectionRunning:
		return "running"
	case ElectionNoQuorum:
		return "no_quorum"
	case ElectionFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ElectionRumor is the highlander Bully-variant election rumor. Each
// rumor carries the candidate currently being voted for, the term, an
// application-provided suitability score, and the accumulated voter list.
type ElectionRumor struct {
	FromID       string
	MemberID     string
	ServiceGroup string
	Term         uint64
	Suitability  uint64
	Status       ElectionStatus
	Votes        []string
}

// NewElection starts a fresh, running election in which the given member
// votes for itself.
func NewElection(fromID, serviceGroup string, term, suitability uint64) ElectionRumor {
	return ElectionRumor{
		FromID:       fromID,
		MemberID:     fromID,
		ServiceGroup: serviceGroup,
		Term:         term,
		Suitability:  suitability,
		Status:       ElectionRunning,
		Votes:        []string{fromID},
	}
}

func (r ElectionRumor) Kind() RumorType { return RumorElection }
func (r ElectionRumor) Key() string     { return r.ServiceGroup }
func (r ElectionRumor) ID() string      { return "election" }

// equal compares the fields that matter for rumor identity — FromID is
// deliberately excluded; who relayed a rumor is not part of what it says.
func (r ElectionRumor) equal(other ElectionRumor) bool {
	if r.MemberID != other.MemberID || r.ServiceGroup != other.ServiceGroup ||
		r.Term != other.Term || r.Suitability != other.Suitability || r.Status != other.Status {
		return false
	}
	if len(r.Votes) != len(other.Votes) {
		return false
	}
	for i := range r.Votes {
		if r.Votes[i] != other.Votes[i] {
			return false
		}
	}
	return true
}

// stealVotesInto returns the union of a's and b's voter lists, preserving
// a's order with b's new entries appended — the winner steals the loser's
// votes.
func stealVotesInto(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Merge resolves two competing elections for the same service group, in
// strict priority order: identity, a finished election at the same or a
// later term, term, suitability, then a member-id tie-break.
func (r ElectionRumor) Merge(otherR Rumor) (Rumor, bool) {
	other, ok := otherR.(ElectionRumor)
	if !ok {
		panic(ErrIncomparableRumor)
	}

	if r.equal(other) {
		return r, false
	}
	if other.Term >= r.Term && other.Status == ElectionFinished {
		return other, true
	}
	if other.Term == r.Term && r.Status == ElectionFinished {
		return r, false
	}
	if r.Term > other.Term {
		return r, true
	}
	if r.Suitability > other.Suitability {
		r.Votes = stealVotesInto(r.Votes, other.Votes)
		return r, true
	}
	if other.Suitability > r.Suitability {
		other.Votes = stealVotesInto(other.Votes, r.Votes)
		return other, true
	}
	// Equal suitability: tie-break on member-id.
	if r.MemberID >= other.MemberID {
		r.Votes = stealVotesInto(r.Votes, other.Votes)
		return r, true
	}
	other.Votes = stealVotesInto(other.Votes, r.Votes)
	return other, true
}

// HasQuorum reports whether the voter set covers a strict majority of the
// given live member count.
func HasQuorum(votes []string, liveCount int) bool {
	if liveCount <= 0 {
		return false
	}
	return len(votes)*2 > liveCount
}

// ElectionUpdateRumor wraps an election that has restarted after a prior
// winner departed — identical merge rules to ElectionRumor but a distinct
// rumor type, so a restart never collides with (or is dominated by) the
// prior election's absorbing Finished rumor.
type ElectionUpdateRumor struct {
	ElectionRumor
}

func (r ElectionUpdateRumor) Kind() RumorType { return RumorElectionUpdate }

func (r ElectionUpdateRumor) Merge(otherR Rumor) (Rumor, bool) {
	other, ok := otherR.(ElectionUpdateRumor)
	if !ok {
		panic(ErrIncomparableRumor)
	}
	merged, changed := r.ElectionRumor.Merge(other.ElectionRumor)
	return ElectionUpdateRumor{ElectionRumor: merged.(ElectionRumor)}, changed
}
