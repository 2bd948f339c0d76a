package wire

import (
	"github.com/tutu-network/gossipd/internal/domain"
	"google.golang.org/protobuf/encoding/protowire"
)

// Rumor record field numbers. The header (type/key/id) is shared by
// every variant; each variant then owns a private range of field numbers so
// a single flat message can carry any of the seven payloads without a
// nested oneof sub-message.
const (
	rumorType = 1
	rumorKey  = 2
	rumorID   = 3

	fMembershipMembership = 10

	fServiceMemberID      = 20
	fServiceGroup         = 21
	fServiceIncarnation   = 22
	fServicePackageIdent  = 23
	fServiceConfigPayload = 24

	fConfigFromID      = 30
	fConfigGroup       = 31
	fConfigIncarnation = 32
	fConfigEncrypted   = 33
	fConfigBody        = 34

	fFileFromID      = 40
	fFileGroup       = 41
	fFileIncarnation = 42
	fFileEncrypted   = 43
	fFileName        = 44
	fFileBody        = 45

	fElectionFromID       = 50
	fElectionMemberID     = 51
	fElectionGroup        = 52
	fElectionTerm         = 53
	fElectionSuitability  = 54
	fElectionStatus       = 55
	fElectionVotes        = 56

	fDepartureMemberID = 60
)

// EncodeRumor encodes any domain.Rumor variant as a Rumor record.
func EncodeRumor(r domain.Rumor) ([]byte, error) {
	var b []byte
	b = appendVarintField(b, rumorType, uint64(r.Kind()))
	b = appendStringField(b, rumorKey, r.Key())
	b = appendStringField(b, rumorID, r.ID())

	switch v := r.(type) {
	case domain.MembershipRumor:
		b = appendBytesField(b, fMembershipMembership, EncodeMembership(v.Membership))
	case domain.ServiceRumor:
		b = appendStringField(b, fServiceMemberID, v.MemberID)
		b = appendStringField(b, fServiceGroup, v.ServiceGroup)
		b = appendVarintField(b, fServiceIncarnation, v.Incarnation)
		b = appendStringField(b, fServicePackageIdent, v.PackageIdent)
		b = appendBytesField(b, fServiceConfigPayload, v.ConfigPayload)
	case domain.ServiceConfigRumor:
		b = appendStringField(b, fConfigFromID, v.FromID)
		b = appendStringField(b, fConfigGroup, v.ServiceGroup)
		b = appendVarintField(b, fConfigIncarnation, v.Incarnation)
		b = appendBoolField(b, fConfigEncrypted, v.Encrypted)
		b = appendBytesField(b, fConfigBody, v.Config)
	case domain.ServiceFileRumor:
		b = appendStringField(b, fFileFromID, v.FromID)
		b = appendStringField(b, fFileGroup, v.ServiceGroup)
		b = appendVarintField(b, fFileIncarnation, v.Incarnation)
		b = appendBoolField(b, fFileEncrypted, v.Encrypted)
		b = appendStringField(b, fFileName, v.Filename)
		b = appendBytesField(b, fFileBody, v.Body)
	case domain.ElectionRumor:
		b = appendElectionFields(b, v)
	case domain.ElectionUpdateRumor:
		b = appendElectionFields(b, v.ElectionRumor)
	case domain.DepartureRumor:
		b = appendStringField(b, fDepartureMemberID, v.MemberID)
	default:
		return nil, domain.ErrUnknownRumorType
	}
	return b, nil
}

func appendElectionFields(b []byte, v domain.ElectionRumor) []byte {
	b = appendStringField(b, fElectionFromID, v.FromID)
	b = appendStringField(b, fElectionMemberID, v.MemberID)
	b = appendStringField(b, fElectionGroup, v.ServiceGroup)
	b = appendVarintField(b, fElectionTerm, v.Term)
	b = appendVarintField(b, fElectionSuitability, v.Suitability)
	b = appendVarintField(b, fElectionStatus, uint64(v.Status))
	for _, voter := range v.Votes {
		b = appendStringField(b, fElectionVotes, voter)
	}
	return b
}

// DecodeRumor decodes a Rumor record into its concrete domain.Rumor variant.
func DecodeRumor(b []byte) (domain.Rumor, error) {
	fields, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	typeVal, ok := oneVarint(fields, rumorType)
	if !ok {
		return nil, domain.NewProtocolMismatch("rumor.type")
	}

	switch domain.RumorType(typeVal) {
	case domain.RumorMember:
		msBytes, ok := oneBytes(fields, fMembershipMembership)
		if !ok {
			return nil, domain.NewProtocolMismatch("rumor.membership")
		}
		ms, err := DecodeMembership(msBytes)
		if err != nil {
			return nil, err
		}
		return domain.MembershipRumor{Membership: ms}, nil

	case domain.RumorService:
		memberID, _ := oneString(fields, fServiceMemberID)
		group, _ := oneString(fields, fServiceGroup)
		incarn, _ := oneVarint(fields, fServiceIncarnation)
		pkg, _ := oneString(fields, fServicePackageIdent)
		cfg, _ := oneBytes(fields, fServiceConfigPayload)
		if memberID == "" || group == "" {
			return nil, domain.NewProtocolMismatch("service.member_id")
		}
		return domain.ServiceRumor{
			MemberID: memberID, ServiceGroup: group, Incarnation: incarn,
			PackageIdent: pkg, ConfigPayload: cfg,
		}, nil

	case domain.RumorServiceConfig:
		fromID, _ := oneString(fields, fConfigFromID)
		group, _ := oneString(fields, fConfigGroup)
		incarn, _ := oneVarint(fields, fConfigIncarnation)
		body, _ := oneBytes(fields, fConfigBody)
		if group == "" {
			return nil, domain.NewProtocolMismatch("service_config.service_group")
		}
		return domain.ServiceConfigRumor{
			FromID: fromID, ServiceGroup: group, Incarnation: incarn,
			Encrypted: oneBool(fields, fConfigEncrypted), Config: body,
		}, nil

	case domain.RumorServiceFile:
		fromID, _ := oneString(fields, fFileFromID)
		group, _ := oneString(fields, fFileGroup)
		incarn, _ := oneVarint(fields, fFileIncarnation)
		filename, _ := oneString(fields, fFileName)
		body, _ := oneBytes(fields, fFileBody)
		if group == "" || filename == "" {
			return nil, domain.NewProtocolMismatch("service_file.filename")
		}
		return domain.ServiceFileRumor{
			FromID: fromID, ServiceGroup: group, Incarnation: incarn,
			Encrypted: oneBool(fields, fFileEncrypted), Filename: filename, Body: body,
		}, nil

	case domain.RumorElection, domain.RumorElectionUpdate:
		e, err := decodeElectionFields(fields)
		if err != nil {
			return nil, err
		}
		if domain.RumorType(typeVal) == domain.RumorElectionUpdate {
			return domain.ElectionUpdateRumor{ElectionRumor: e}, nil
		}
		return e, nil

	case domain.RumorDeparture:
		memberID, _ := oneString(fields, fDepartureMemberID)
		if memberID == "" {
			return nil, domain.NewProtocolMismatch("departure.member_id")
		}
		return domain.DepartureRumor{MemberID: memberID}, nil

	default:
		return nil, domain.ErrUnknownRumorType
	}
}

func decodeElectionFields(fields map[protowire.Number][]rawField) (domain.ElectionRumor, error) {
	fromID, _ := oneString(fields, fElectionFromID)
	memberID, _ := oneString(fields, fElectionMemberID)
	group, _ := oneString(fields, fElectionGroup)
	term, _ := oneVarint(fields, fElectionTerm)
	suitability, _ := oneVarint(fields, fElectionSuitability)
	status, _ := oneVarint(fields, fElectionStatus)
	if memberID == "" || group == "" {
		return domain.ElectionRumor{}, domain.NewProtocolMismatch("election.member_id")
	}
	var votes []string
	for _, f := range fields[fElectionVotes] {
		votes = append(votes, string(f.bytes))
	}
	return domain.ElectionRumor{
		FromID: fromID, MemberID: memberID, ServiceGroup: group,
		Term: term, Suitability: suitability,
		Status: domain.ElectionStatus(status), Votes: votes,
	}, nil
}
