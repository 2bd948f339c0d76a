package wire

import (
	"github.com/tutu-network/gossipd/internal/domain"
)

// SwimType is the Swim record's payload discriminator.
type SwimType uint64

const (
	SwimPing    SwimType = 1
	SwimAck     SwimType = 2
	SwimPingReq SwimType = 3
)

// SwimMessage is the decoded form of a Swim record: a membership piggyback
// list plus exactly one of Ping/Ack/PingReq, selected by Type.
type SwimMessage struct {
	Type       SwimType
	Membership []domain.Membership

	From      domain.Member  // Ping, Ack, PingReq
	ForwardTo *domain.Member // Ping, Ack — nil when absent
	Target    domain.Member  // PingReq only
}

// Field numbers for the Swim envelope record.
const (
	swimType       = 1
	swimMembership = 2
	swimPayload    = 3
)

// Field numbers shared by the Ping/Ack sub-message.
const (
	pingAckFrom      = 1
	pingAckForwardTo = 2
)

// Field numbers for the PingReq sub-message.
const (
	pingReqFrom   = 1
	pingReqTarget = 2
)

func encodePingAck(from domain.Member, forwardTo *domain.Member) []byte {
	var b []byte
	b = appendBytesField(b, pingAckFrom, EncodeMember(from))
	if forwardTo != nil {
		b = appendBytesField(b, pingAckForwardTo, EncodeMember(*forwardTo))
	}
	return b
}

func decodePingAck(b []byte) (domain.Member, *domain.Member, error) {
	fields, err := parseFields(b)
	if err != nil {
		return domain.Member{}, nil, err
	}
	fromBytes, ok := oneBytes(fields, pingAckFrom)
	if !ok {
		return domain.Member{}, nil, domain.NewProtocolMismatch("ping_ack.from")
	}
	from, err := DecodeMember(fromBytes)
	if err != nil {
		return domain.Member{}, nil, err
	}
	var forwardTo *domain.Member
	if ftBytes, ok := oneBytes(fields, pingAckForwardTo); ok {
		ft, err := DecodeMember(ftBytes)
		if err != nil {
			return domain.Member{}, nil, err
		}
		forwardTo = &ft
	}
	return from, forwardTo, nil
}

func encodePingReq(from, target domain.Member) []byte {
	var b []byte
	b = appendBytesField(b, pingReqFrom, EncodeMember(from))
	b = appendBytesField(b, pingReqTarget, EncodeMember(target))
	return b
}

func decodePingReq(b []byte) (from, target domain.Member, err error) {
	fields, err := parseFields(b)
	if err != nil {
		return domain.Member{}, domain.Member{}, err
	}
	fromBytes, ok := oneBytes(fields, pingReqFrom)
	if !ok {
		return domain.Member{}, domain.Member{}, domain.NewProtocolMismatch("ping_req.from")
	}
	targetBytes, ok := oneBytes(fields, pingReqTarget)
	if !ok {
		return domain.Member{}, domain.Member{}, domain.NewProtocolMismatch("ping_req.target")
	}
	from, err = DecodeMember(fromBytes)
	if err != nil {
		return domain.Member{}, domain.Member{}, err
	}
	target, err = DecodeMember(targetBytes)
	if err != nil {
		return domain.Member{}, domain.Member{}, err
	}
	return from, target, nil
}

// EncodeSwim encodes a SwimMessage as a length-delimited Swim record.
func EncodeSwim(m SwimMessage) []byte {
	var b []byte
	b = appendVarintField(b, swimType, uint64(m.Type))
	for _, ms := range m.Membership {
		b = appendBytesField(b, swimMembership, EncodeMembership(ms))
	}
	var payload []byte
	switch m.Type {
	case SwimPing, SwimAck:
		payload = encodePingAck(m.From, m.ForwardTo)
	case SwimPingReq:
		payload = encodePingReq(m.From, m.Target)
	}
	b = appendBytesField(b, swimPayload, payload)
	return b
}

// DecodeSwim decodes a Swim record. Returns a ProtocolMismatch if the
// payload's oneof discriminator doesn't match any known Swim type, or if
// the required oneof payload is absent.
func DecodeSwim(b []byte) (SwimMessage, error) {
	fields, err := parseFields(b)
	if err != nil {
		return SwimMessage{}, err
	}
	typeVal, ok := oneVarint(fields, swimType)
	if !ok {
		return SwimMessage{}, domain.NewProtocolMismatch("swim.type")
	}
	payload, ok := oneBytes(fields, swimPayload)
	if !ok {
		return SwimMessage{}, domain.NewProtocolMismatch("swim.payload")
	}

	var membership []domain.Membership
	for _, f := range fields[swimMembership] {
		ms, err := DecodeMembership(f.bytes)
		if err != nil {
			return SwimMessage{}, err
		}
		membership = append(membership, ms)
	}

	out := SwimMessage{Type: SwimType(typeVal), Membership: membership}
	switch out.Type {
	case SwimPing, SwimAck:
		from, forwardTo, err := decodePingAck(payload)
		if err != nil {
			return SwimMessage{}, err
		}
		out.From, out.ForwardTo = from, forwardTo
	case SwimPingReq:
		from, target, err := decodePingReq(payload)
		if err != nil {
			return SwimMessage{}, err
		}
		out.From, out.Target = from, target
	default:
		return SwimMessage{}, domain.NewProtocolMismatch("swim.type")
	}
	return out, nil
}
