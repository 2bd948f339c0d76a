package domain

// RumorType tags the seven rumor variants that circulate through the gossip
// overlay. Implemented as a sum type with seven concrete Go structs rather
// than leaning on a runtime subclass hierarchy.
type RumorType int

const (
	RumorMember RumorType = iota
	RumorService
	RumorServiceConfig
	RumorServiceFile
	RumorElection
	RumorElectionUpdate
	RumorDeparture
)

func (t RumorType) String() string {
	switch t {
	case RumorMember:
		return "member"
	case RumorService:
		return "service"
	case RumorServiceConfig:
		return "service_config"
	case RumorServiceFile:
		return "service_file"
	case RumorElection:
		return "election"
	case RumorElectionUpdate:
		return "election_update"
	case RumorDeparture:
		return "departure"
	default:
		return "unknown"
	}
}

// Rumor is the capability set every rumor variant supplies: identity
// (Kind/Key/ID, together forming the rumor store's composite key) and a
// merge operation reporting whether the merge changed local state. Merge is
// only ever called with another rumor that shares (Kind, Key, ID) — the
// rumor store never compares rumors across different keys, so a concrete
// Merge implementation may assume its argument is its own type and panic
// (a programming-error invariant violation, not a peer-caused error) if not.
type Rumor interface {
	Kind() RumorType
	Key() string
	ID() string
	Merge(other Rumor) (Rumor, bool)
}

// StoreKey is the rumor store's composite key.
type StoreKey struct {
	Kind RumorType
	Key  string
	ID   string
}

// KeyOf builds the composite store key for a rumor.
func KeyOf(r Rumor) StoreKey {
	return StoreKey{Kind: r.Kind(), Key: r.Key(), ID: r.ID()}
}

// MembershipRumor carries a Membership observation through the gossip
// overlay. Its rumor-store key is (Member, member-id, "") — matching the
// original source's RumorKey::new(RumorType::Member, member.id, "").
type MembershipRumor struct {
	Membership Membership
}

func (r MembershipRumor) Kind() RumorType { return RumorMember }
func (r MembershipRumor) Key() string     { return r.Membership.Member.ID }
func (r MembershipRumor) ID() string      { return "" }

func (r MembershipRumor) Merge(otherR Rumor) (Rumor, bool) {
	other, ok := otherR.(MembershipRumor)
	if !ok {
		panic(ErrIncomparableRumor)
	}
	merged, changed := r.Membership.Merge(other.Membership)
	return MembershipRumor{Membership: merged}, changed
}

// ServiceRumor announces that a member is running a service. Merge is a
// simple "higher incarnation replaces" rule.
type ServiceRumor struct {
	MemberID      string
	ServiceGroup  string
	Incarnation   uint64
	PackageIdent  string
	ConfigPayload []byte
}

func (r ServiceRumor) Kind() RumorType { return RumorService }
func (r ServiceRumor) Key() string     { return r.ServiceGroup }
func (r ServiceRumor) ID() string      { return r.MemberID }

func (r ServiceRumor) Merge(otherR Rumor) (Rumor, bool) {
	other, ok := otherR.(ServiceRumor)
	if !ok {
		panic(ErrIncomparableRumor)
	}
	if r.Incarnation >= other.Incarnation {
		return r, false
	}
	return other, true
}

// ServiceConfigRumor carries the TOML configuration body injected for a
// service, optionally NaCl-box-wrapped.
type ServiceConfigRumor struct {
	FromID       string
	ServiceGroup string
	Incarnation  uint64
	Encrypted    bool
	Config       []byte
}

func (r ServiceConfigRumor) Kind() RumorType { return RumorServiceConfig }
func (r ServiceConfigRumor) Key() string     { return r.ServiceGroup }
func (r ServiceConfigRumor) ID() string      { return "service_config" }

func (r ServiceConfigRumor) Merge(otherR Rumor) (Rumor, bool) {
	other, ok := otherR.(ServiceConfigRumor)
	if !ok {
		panic(ErrIncomparableRumor)
	}
	if r.Incarnation >= other.Incarnation {
		return r, false
	}
	return other, true
}

// ServiceFileRumor carries a single file body belonging to a service.
// Same incarnation-replace merge as ServiceConfig.
type ServiceFileRumor struct {
	FromID       string
	ServiceGroup string
	Incarnation  uint64
	Encrypted    bool
	Filename     string
	Body         []byte
}

func (r ServiceFileRumor) Kind() RumorType { return RumorServiceFile }
func (r ServiceFileRumor) Key() string     { return r.ServiceGroup }
func (r ServiceFileRumor) ID() string      { return r.Filename }

func (r ServiceFileRumor) Merge(otherR Rumor) (Rumor, bool) {
	other, ok := otherR.(ServiceFileRumor)
	if !ok {
		panic(ErrIncomparableRumor)
	}
	if r.Incarnation >= other.Incarnation {
		return r, false
	}
	return other, true
}

// DepartureRumor is an idempotent, latching announcement that member_id has
// been manually removed from the cluster.
type DepartureRumor struct {
	MemberID string
}

func (r DepartureRumor) Kind() RumorType { return RumorDeparture }
func (r DepartureRumor) Key() string     { return "departure" }
func (r DepartureRumor) ID() string      { return r.MemberID }

func (r DepartureRumor) Merge(otherR Rumor) (Rumor, bool) {
	if _, ok := otherR.(DepartureRumor); !ok {
		panic(ErrIncomparableRumor)
	}
	// Presence is the only state a Departure carries; once stored for a
	// given member-id, merging another copy of it is always a no-op.
	return r, false
}
