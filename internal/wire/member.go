package wire

import (
	"github.com/tutu-network/gossipd/internal/domain"
)

// Field numbers for the Member record.
const (
	memberID         = 1
	memberIncarn     = 2
	memberAddress    = 3
	memberSwimPort   = 4
	memberGossipPort = 5
	memberPersistent = 6
	memberDeparted   = 7
)

// EncodeMember encodes a domain.Member as a Member protobuf record.
func EncodeMember(m domain.Member) []byte {
	var b []byte
	b = appendStringField(b, memberID, m.ID)
	b = appendVarintField(b, memberIncarn, m.Incarnation)
	b = appendStringField(b, memberAddress, m.Address)
	b = appendVarintField(b, memberSwimPort, uint64(uint32(m.SwimPort)))
	b = appendVarintField(b, memberGossipPort, uint64(uint32(m.GossipPort)))
	b = appendBoolField(b, memberPersistent, m.Persistent)
	b = appendBoolField(b, memberDeparted, m.Departed)
	return b
}

// DecodeMember decodes a Member record. A missing id is a ProtocolMismatch —
// every other field tolerates its zero value for forward compatibility.
func DecodeMember(b []byte) (domain.Member, error) {
	fields, err := parseFields(b)
	if err != nil {
		return domain.Member{}, err
	}
	id, ok := oneString(fields, memberID)
	if !ok || id == "" {
		return domain.Member{}, domain.NewProtocolMismatch("member.id")
	}
	incarn, _ := oneVarint(fields, memberIncarn)
	addr, _ := oneString(fields, memberAddress)
	swimPort, _ := oneVarint(fields, memberSwimPort)
	gossipPort, _ := oneVarint(fields, memberGossipPort)
	return domain.Member{
		ID:          id,
		Incarnation: incarn,
		Address:     addr,
		SwimPort:    int32(swimPort),
		GossipPort:  int32(gossipPort),
		Persistent:  oneBool(fields, memberPersistent),
		Departed:    oneBool(fields, memberDeparted),
	}, nil
}

// Field numbers for the Membership record.
const (
	membershipMember = 1
	membershipHealth = 2
)

// EncodeMembership encodes a domain.Membership as a Membership record.
func EncodeMembership(m domain.Membership) []byte {
	var b []byte
	b = appendBytesField(b, membershipMember, EncodeMember(m.Member))
	b = appendVarintField(b, membershipHealth, uint64(m.Health))
	return b
}

// DecodeMembership decodes a Membership record.
func DecodeMembership(b []byte) (domain.Membership, error) {
	fields, err := parseFields(b)
	if err != nil {
		return domain.Membership{}, err
	}
	memberBytes, ok := oneBytes(fields, membershipMember)
	if !ok {
		return domain.Membership{}, domain.NewProtocolMismatch("membership.member")
	}
	member, err := DecodeMember(memberBytes)
	if err != nil {
		return domain.Membership{}, err
	}
	health, _ := oneVarint(fields, membershipHealth)
	return domain.Membership{Member: member, Health: domain.Health(health)}, nil
}
